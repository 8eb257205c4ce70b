package models

import "time"

// CaseNumber is the canonical, uppercase, whitespace-stripped identifier
// of a court case, as produced by the extractor or name normalizer.
type CaseNumber string

// FetchStatusTag is the discriminant of the FetchStatus tagged variant.
type FetchStatusTag string

const (
	StatusQueued       FetchStatusTag = "queued"
	StatusProcessing   FetchStatusTag = "processing"
	StatusFound        FetchStatusTag = "found"
	StatusNotFound     FetchStatusTag = "notFound"
	StatusFailed       FetchStatusTag = "failed"
	StatusComplete     FetchStatusTag = "complete"
	StatusReprocessing FetchStatusTag = "reprocessing"
)

// FetchStatus is the per-case state machine described in spec.md §3.
// Failed carries a message; Reprocessing carries a try count. Complete
// also carries the try count forward when it is reached via a
// reprocessing retry, so the Status API can tell a first corruption
// from a repeat one without consulting history. Both fields are zero
// on every other tag.
type FetchStatus struct {
	Tag      FetchStatusTag `json:"tag"`
	Message  string         `json:"message,omitempty"`
	TryCount int            `json:"tryCount,omitempty"`
}

// Terminal reports whether polling clients should stop polling on this
// status. notFound is treated as terminal per the implementer decision in
// spec.md §9 (Open Questions).
func (s FetchStatus) Terminal() bool {
	switch s.Tag {
	case StatusComplete, StatusFailed, StatusNotFound:
		return true
	default:
		return false
	}
}

func Queued() FetchStatus     { return FetchStatus{Tag: StatusQueued} }
func Processing() FetchStatus { return FetchStatus{Tag: StatusProcessing} }
func Found() FetchStatus      { return FetchStatus{Tag: StatusFound} }
func NotFoundStatus() FetchStatus { return FetchStatus{Tag: StatusNotFound} }
func Complete() FetchStatus   { return FetchStatus{Tag: StatusComplete} }

func Failed(message string) FetchStatus {
	return FetchStatus{Tag: StatusFailed, Message: message}
}

func Reprocessing(tryCount int) FetchStatus {
	return FetchStatus{Tag: StatusReprocessing, TryCount: tryCount}
}

// ZipCase is the process-wide-shared record keyed by CaseNumber.
type ZipCase struct {
	CaseNumber  CaseNumber `json:"caseNumber"`
	FetchStatus FetchStatus `json:"fetchStatus"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	CaseID      string     `json:"caseId,omitempty"`
}

// Degree describes a charge's severity classification.
type Degree struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Disposition is the outcome recorded against a single charge.
type Disposition struct {
	Date        string `json:"date,omitempty"`
	Description string `json:"description"`
}

// Charge is one charge line of a CaseSummary.
type Charge struct {
	OffenseDate    string        `json:"offenseDate,omitempty"`
	FiledDate      string        `json:"filedDate,omitempty"`
	Description    string        `json:"description"`
	Statute        string        `json:"statute,omitempty"`
	Degree         Degree        `json:"degree"`
	Fine           string        `json:"fine,omitempty"`
	Dispositions   []Disposition `json:"dispositions"`
	FilingAgency   string        `json:"filingAgency,omitempty"`
}

// CaseSummary is stored separately from ZipCase under the same
// CaseNumber, so summary corruption never destroys case identity.
type CaseSummary struct {
	CaseName string   `json:"caseName"`
	Court    string   `json:"court"`
	Charges  []Charge `json:"charges"`
}

// WellFormed reports whether s satisfies spec.md §3's well-formed
// predicate: caseName, court, and a (possibly empty) charges array are
// all present. A nil Charges slice (absent in the JSON) fails; an empty
// non-nil slice passes.
func (s *CaseSummary) WellFormed() bool {
	if s == nil {
		return false
	}
	return s.CaseName != "" && s.Court != "" && s.Charges != nil
}
