package fs

import (
	"context"
	"encoding/json"

	"github.com/bft-labs/dropship/internal/domain"
)

// ReportFile implements ports.ReportSink by writing the report as indented JSON.
type ReportFile struct {
	path string
}

// NewReportFile creates a sink writing to path.
func NewReportFile(path string) *ReportFile {
	return &ReportFile{path: path}
}

// Write persists the report atomically.
func (r *ReportFile) Write(ctx context.Context, report domain.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(r.path, append(data, '\n'))
}

// Path returns the report path.
func (r *ReportFile) Path() string {
	return r.path
}
