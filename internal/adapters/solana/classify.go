package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/bft-labs/dropship/internal/domain"
)

// SPL Token program error code for an underfunded source account.
const tokenErrInsufficientFunds = "0x1"

// rpcFailure gives a one-line message to RPC errors, which otherwise render
// as a multi-line dump.
type rpcFailure struct {
	err *jsonrpc.RPCError
}

func (e *rpcFailure) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.err.Code, e.err.Message)
}

func (e *rpcFailure) Unwrap() error {
	return e.err
}

// classify maps an RPC failure to a SubmissionError.
func classify(err error) error {
	var se *domain.SubmissionError
	if errors.As(err, &se) {
		return se
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &domain.SubmissionError{Reason: rpcReason(rpcErr), Err: &rpcFailure{err: rpcErr}}
	}
	return &domain.SubmissionError{Reason: transportReason(err), Err: err}
}

func rpcReason(e *jsonrpc.RPCError) domain.RejectReason {
	text := strings.ToLower(e.Message)
	if e.Data != nil {
		if b, err := json.Marshal(e.Data); err == nil {
			text += " " + strings.ToLower(string(b))
		}
	}
	switch {
	case strings.Contains(text, "blockhash not found"),
		strings.Contains(text, "blockhashnotfound"),
		strings.Contains(text, "block height exceeded"):
		return domain.RejectStaleWindow
	case strings.Contains(text, "insufficient funds"),
		strings.Contains(text, "insufficient lamports"),
		strings.Contains(text, "insufficientfunds"),
		hasCustomCode(text, tokenErrInsufficientFunds):
		return domain.RejectInsufficientFunds
	}
	return domain.RejectMalformedInstruction
}

func transportReason(err error) domain.RejectReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.RejectNetworkTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.RejectNetworkTimeout
	}
	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return domain.RejectNetworkTimeout
	}
	return domain.RejectUnknown
}

// isTransient reports whether a broadcast may be retried as-is.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return false
	}
	return transportReason(err) == domain.RejectNetworkTimeout
}

// hasCustomCode reports whether text contains "custom program error: <code>"
// with code not followed by further hex digits.
func hasCustomCode(text, code string) bool {
	needle := "custom program error: " + code
	for {
		i := strings.Index(text, needle)
		if i < 0 {
			return false
		}
		rest := text[i+len(needle):]
		if rest == "" || !isHexDigit(rest[0]) {
			return true
		}
		text = rest
	}
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f')
}

// classifyStatusErr maps the on-chain error of a processed transaction,
// e.g. {"InstructionError":[0,{"Custom":1}]}, to a SubmissionError.
func classifyStatusErr(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(fmt.Sprint(v))
	}
	text := string(b)
	reason := domain.RejectUnknown
	switch {
	case strings.Contains(text, "BlockhashNotFound"):
		reason = domain.RejectStaleWindow
	case strings.Contains(text, `"Custom":1}`), strings.Contains(text, "InsufficientFunds"):
		reason = domain.RejectInsufficientFunds
	case strings.Contains(text, "InstructionError"):
		reason = domain.RejectMalformedInstruction
	}
	return &domain.SubmissionError{Reason: reason, Err: fmt.Errorf("transaction failed on-chain: %s", text)}
}
