// Package namenorm implements the Name Normalizer (NN): converting free-form
// person names into the canonical "Last, First [Middle...]" form the portal
// expects for party-name Smart Search.
package namenorm

import "strings"

// surnamePrefixes are compound-surname prefixes that stay attached to the
// token following them when locating the surname boundary.
var surnamePrefixes = map[string]struct{}{
	"van": {}, "von": {}, "de": {}, "der": {}, "da": {}, "del": {},
	"di": {}, "bin": {}, "le": {}, "la": {},
}

// Normalize converts "First [Middle...] Last" or "Last, First [Middle...]"
// into "Last, First [Middle...]", preserving compound surname prefixes and
// hyphenation. Unparseable or empty input returns "".
func Normalize(input string) string {
	collapsed := collapseWhitespace(input)
	if collapsed == "" {
		return ""
	}

	if idx := singleCommaIndex(collapsed); idx >= 0 {
		left := strings.TrimSpace(collapsed[:idx])
		right := strings.TrimSpace(collapsed[idx+1:])
		if left != "" && right != "" {
			return left + ", " + right
		}
	}

	tokens := strings.Fields(collapsed)
	if len(tokens) <= 1 {
		return collapsed
	}

	surnameStart := len(tokens) - 1
	for surnameStart > 0 {
		candidate := strings.ToLower(tokens[surnameStart-1])
		if _, ok := surnamePrefixes[candidate]; !ok {
			break
		}
		surnameStart--
	}

	surname := strings.Join(tokens[surnameStart:], " ")
	given := strings.Join(tokens[:surnameStart], " ")
	if given == "" {
		return surname
	}
	return surname + ", " + given
}

// collapseWhitespace trims and collapses interior runs of whitespace to a
// single space.
func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// singleCommaIndex returns the index of the sole comma in s, or -1 if s
// contains zero or more than one comma.
func singleCommaIndex(s string) int {
	first := strings.IndexByte(s, ',')
	if first < 0 {
		return -1
	}
	if strings.IndexByte(s[first+1:], ',') >= 0 {
		return -1
	}
	return first
}
