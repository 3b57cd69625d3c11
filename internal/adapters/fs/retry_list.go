package fs

import (
	"context"
	"strings"

	"github.com/bft-labs/dropship/internal/domain"
)

// RetryList implements ports.ReportSink by writing the failed and skipped
// recipients of a run in the recipient file format, ready to be fed back
// as the input of a retry pass.
type RetryList struct {
	path string
}

// NewRetryList creates a sink writing to path.
func NewRetryList(path string) *RetryList {
	return &RetryList{path: path}
}

// Write persists the retry list atomically. An empty list still produces a file.
func (r *RetryList) Write(ctx context.Context, report domain.Report) error {
	var b strings.Builder
	for _, a := range report.Summary.Unfinished() {
		b.WriteString(a.String())
		b.WriteByte('\n')
	}
	return writeFileAtomic(r.path, []byte(b.String()))
}
