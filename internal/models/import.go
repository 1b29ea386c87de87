package models

import "time"

// LineError reports why one line of an import was rejected
type LineError struct {
	Line    int    `json:"line"`
	Kind    string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportReport summarizes a bulk import
type ImportReport struct {
	Resource     string      `json:"resource"`
	TotalRecords int         `json:"total_records"`
	Successful   int         `json:"successful"`
	Failed       int         `json:"failed"`
	CreatedIDs   []string    `json:"created_ids"`
	Errors       []LineError `json:"errors,omitempty"`
	Truncated    bool        `json:"errors_truncated,omitempty"`
	Incomplete   bool        `json:"incomplete,omitempty"`
	DurationMs   int64       `json:"duration_ms"`
	StartedAt    time.Time   `json:"started_at"`
}
