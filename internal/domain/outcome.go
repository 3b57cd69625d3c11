package domain

import "time"

// Status is the terminal state of a chunk.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// SkipReason explains why a chunk was never issued.
type SkipReason string

const (
	SkipDeadlineExceeded SkipReason = "deadline_exceeded"
	SkipCanceled         SkipReason = "canceled"
)

// OutcomeRecord is the terminal result for one chunk.
// Exactly one record exists per chunk once a run has ended.
type OutcomeRecord struct {
	ChunkIndex   int          `json:"chunk_index"`
	Recipients   []Address    `json:"recipients"`
	Status       Status       `json:"status"`
	SkipReason   SkipReason   `json:"skip_reason,omitempty"`
	RejectReason RejectReason `json:"reject_reason,omitempty"`
	Error        string       `json:"error,omitempty"`
	Signature    string       `json:"signature,omitempty"`
	IssuedAt     time.Time    `json:"issued_at,omitzero"`
	RecordedAt   time.Time    `json:"recorded_at"`
}

// Succeeded builds a success record for chunk confirmed under ticket.
func Succeeded(chunk Chunk, ticket Ticket, at time.Time) OutcomeRecord {
	return OutcomeRecord{
		ChunkIndex: chunk.Index,
		Recipients: chunk.Recipients,
		Status:     StatusSucceeded,
		Signature:  ticket.Signature,
		IssuedAt:   ticket.IssuedAt,
		RecordedAt: at,
	}
}

// Failed builds a failure record. issuedAt is zero when the chunk never
// reached the network.
func Failed(chunk Chunk, err error, signature string, issuedAt, at time.Time) OutcomeRecord {
	rec := OutcomeRecord{
		ChunkIndex:   chunk.Index,
		Recipients:   chunk.Recipients,
		Status:       StatusFailed,
		RejectReason: ReasonOf(err),
		Signature:    signature,
		IssuedAt:     issuedAt,
		RecordedAt:   at,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// Skipped builds a record for a chunk that was never issued.
func Skipped(chunk Chunk, reason SkipReason, at time.Time) OutcomeRecord {
	return OutcomeRecord{
		ChunkIndex: chunk.Index,
		Recipients: chunk.Recipients,
		Status:     StatusSkipped,
		SkipReason: reason,
		RecordedAt: at,
	}
}

// Summary partitions recipients by the status of their chunk.
type Summary struct {
	Succeeded []Address `json:"succeeded"`
	Failed    []Address `json:"failed"`
	Skipped   []Address `json:"skipped"`
}

// Summarize builds a Summary from records. Records are expected in chunk order.
func Summarize(records []OutcomeRecord) Summary {
	s := Summary{
		Succeeded: []Address{},
		Failed:    []Address{},
		Skipped:   []Address{},
	}
	for _, r := range records {
		switch r.Status {
		case StatusSucceeded:
			s.Succeeded = append(s.Succeeded, r.Recipients...)
		case StatusFailed:
			s.Failed = append(s.Failed, r.Recipients...)
		case StatusSkipped:
			s.Skipped = append(s.Skipped, r.Recipients...)
		}
	}
	return s
}

// Total returns the number of recipients across all partitions.
func (s Summary) Total() int {
	return len(s.Succeeded) + len(s.Failed) + len(s.Skipped)
}

// Unfinished returns failed then skipped recipients, in that order.
func (s Summary) Unfinished() []Address {
	out := make([]Address, 0, len(s.Failed)+len(s.Skipped))
	out = append(out, s.Failed...)
	return append(out, s.Skipped...)
}
