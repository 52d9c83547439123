package exports

import (
	"errors"
	"time"
)

const (
	FormatCSV = "csv"
	FormatPDF = "pdf"

	DefaultListLimit = 20
	maxListLimit     = 100
)

var ErrInvalidFormat = errors.New("format must be 'csv' or 'pdf'")

// CreateExportRequest renders one week of a profile's plan.
type CreateExportRequest struct {
	ProfileID string `json:"profile_id"`
	Week      string `json:"week"`
	Format    string `json:"format"`
}

type ExportDTO struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	Week        string    `json:"week"`
	Format      string    `json:"format"`
	SizeBytes   int64     `json:"size_bytes"`
	DownloadURL string    `json:"download_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListExportsResponse struct {
	Exports []ExportDTO `json:"exports"`
}

// Content is a rendered export ready to be written out.
type Content struct {
	Data        []byte
	ContentType string
	Filename    string
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/pdf"
}
