package namenorm

import "time"

// dobLayouts are the input formats the date-of-birth companion parser
// accepts, tried in order.
var dobLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006"}

// ParseDateOfBirth parses a free-form date string into a canonical
// "2006-01-02" form. Per spec.md §8's boundary behavior, a date strictly
// in the future returns "none": the API layer accepts a future
// dateOfBirth, but this parser rejects it rather than forwarding it to
// the portal.
func ParseDateOfBirth(input string) string {
	return parseDateOfBirthAt(input, time.Now())
}

func parseDateOfBirthAt(input string, now time.Time) string {
	if input == "" {
		return "none"
	}
	for _, layout := range dobLayouts {
		parsed, err := time.Parse(layout, input)
		if err != nil {
			continue
		}
		if parsed.After(now) {
			return "none"
		}
		return parsed.Format("2006-01-02")
	}
	return "none"
}
