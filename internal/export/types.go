// Package export renders the analytics report as PDF and XLSX documents.
package export

import (
	"errors"
	"time"

	"jerrygfit/api/internal/analytics"
	"jerrygfit/api/internal/store"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportData is everything a report needs, already scoped to one user.
type ReportData struct {
	UserName    string
	GeneratedAt time.Time
	Analytics   analytics.Report
	Tasks       []store.Task
	Risks       []store.Risk
	Projects    []store.Project
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates no Chrome or Chromium binary is available.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
