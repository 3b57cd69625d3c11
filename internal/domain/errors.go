package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the dropship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrSourceUnavailable is returned when the address source cannot be read.
	ErrSourceUnavailable = errors.New("dropship: address source unavailable")

	// ErrNoRecipients is returned when the source yields no valid address.
	ErrNoRecipients = errors.New("dropship: no valid recipients")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("dropship: invalid configuration")

	// ErrInvalidChunkSize is returned for a chunk size outside [1, MaxChunkSize].
	ErrInvalidChunkSize = fmt.Errorf("%w: invalid chunk size", ErrInvalidConfig)

	// ErrEmptyChunk is returned when an operation is requested for an empty chunk.
	ErrEmptyChunk = errors.New("dropship: empty chunk")

	// ErrNetworkUnavailable is returned when the ledger endpoint cannot be reached.
	ErrNetworkUnavailable = errors.New("dropship: network unavailable")

	// ErrInvalidTransition is returned for a lifecycle transition that is not allowed.
	ErrInvalidTransition = errors.New("dropship: invalid state transition")

	// ErrTrackerSealed is returned when a record is appended after the run ended.
	ErrTrackerSealed = errors.New("dropship: outcome tracker sealed")
)

// MaxChunkSize is the largest chunk size accepted. It bounds the number of
// transfer instructions packed into a single transaction.
const MaxChunkSize = 64

// DecodeError describes one source line that could not be decoded as an address.
type DecodeError struct {
	Line    int
	Content string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Content, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the wrapped error as a string.
func (e DecodeError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Line    int    `json:"line"`
		Content string `json:"content"`
		Error   string `json:"error"`
	}{e.Line, e.Content, msg})
}

// WindowFetchError is returned when a freshness window could not be obtained.
type WindowFetchError struct {
	Err error
}

func (e *WindowFetchError) Error() string {
	return fmt.Sprintf("fetch freshness window: %v", e.Err)
}

func (e *WindowFetchError) Unwrap() error {
	return e.Err
}

// RejectReason classifies why the network refused or failed an operation.
type RejectReason string

const (
	RejectStaleWindow          RejectReason = "stale_window"
	RejectInsufficientFunds    RejectReason = "insufficient_funds"
	RejectMalformedInstruction RejectReason = "malformed_instruction"
	RejectNetworkTimeout       RejectReason = "network_timeout"
	RejectUnknown              RejectReason = "unknown"
)

// SubmissionError is returned by a ledger when an operation is rejected,
// either at submission or while awaiting confirmation.
type SubmissionError struct {
	Reason RejectReason
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the reject reason from err.
// Errors that carry no classification map to RejectUnknown.
func ReasonOf(err error) RejectReason {
	var se *SubmissionError
	if errors.As(err, &se) && se.Reason != "" {
		return se.Reason
	}
	var wfe *WindowFetchError
	if errors.As(err, &wfe) {
		return RejectStaleWindow
	}
	return RejectUnknown
}
