// Package exporters renders library data as CSV spreadsheets and Markdown reports.
package exporters

import "time"

// ExportResult counts what an export wrote.
type ExportResult struct {
	Rows int `json:"rows"`
}

const dateFormat = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
