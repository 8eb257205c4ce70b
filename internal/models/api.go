package models

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Search string `json:"search" binding:"required"`
}

// SearchResult is the per-case payload returned by /search, /status, and
// /case/{caseNumber}.
type SearchResult struct {
	ZipCase     ZipCase      `json:"zipCase"`
	CaseSummary *CaseSummary `json:"caseSummary,omitempty"`
}

// SearchResponse wraps a batch of SearchResult keyed by case number.
type SearchResponse struct {
	Results map[CaseNumber]SearchResult `json:"results"`
}

// NameSearchRequest is the body of POST /name-search.
type NameSearchRequest struct {
	Name         string `json:"name" binding:"required"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	SoundsLike   bool   `json:"soundsLike"`
	CriminalOnly bool   `json:"criminalOnly"`
}

// NameSearchAck is the 202 response to POST /name-search.
type NameSearchAck struct {
	SearchID string                      `json:"searchId,omitempty"`
	Results  map[CaseNumber]SearchResult `json:"results"`
	Success  bool                        `json:"success"`
	Error    string                      `json:"error,omitempty"`
}

// NameSearchResponse is the payload of GET /name-search/{searchId},
// merging the NameSearchData with the current SearchResult of every
// discovered case.
type NameSearchResponse struct {
	SearchID       string                      `json:"searchId"`
	Status         NameSearchStatusTag         `json:"status"`
	Message        string                      `json:"message,omitempty"`
	NormalizedName string                      `json:"normalizedName"`
	Results        map[CaseNumber]SearchResult `json:"results"`
}

// StatusRequest is the body of POST /status.
type StatusRequest struct {
	CaseNumbers []string `json:"caseNumbers" binding:"required"`
}

// ExportRequest is the body of POST /export.
type ExportRequest struct {
	CaseNumbers []string `json:"caseNumbers" binding:"required"`
}

// ErrorResponse is the wire error envelope from spec.md §6.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the payload of GET /health, aggregating the health
// of every backing dependency reported by the services container.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Uptime   string                 `json:"uptime"`
	Services map[string]interface{} `json:"services"`
}
