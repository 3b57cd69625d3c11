package solana

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/bft-labs/dropship/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.RejectReason
	}{
		{"blockhash", &jsonrpc.RPCError{Code: -32002, Message: "Transaction simulation failed: Blockhash not found"}, domain.RejectStaleWindow},
		{"height exceeded", &jsonrpc.RPCError{Message: "block height exceeded"}, domain.RejectStaleWindow},
		{"lamports", &jsonrpc.RPCError{Message: "Attempt to debit an account but found no record of a prior credit.", Data: map[string]any{"err": "InsufficientFundsForFee"}}, domain.RejectInsufficientFunds},
		{"token 0x1", &jsonrpc.RPCError{Message: "custom program error: 0x1"}, domain.RejectInsufficientFunds},
		{"token 0x10", &jsonrpc.RPCError{Message: "custom program error: 0x10"}, domain.RejectMalformedInstruction},
		{"other rpc", &jsonrpc.RPCError{Message: "invalid transaction"}, domain.RejectMalformedInstruction},
		{"wrapped rpc", fmt.Errorf("send: %w", &jsonrpc.RPCError{Message: "Blockhash not found"}), domain.RejectStaleWindow},
		{"deadline", context.DeadlineExceeded, domain.RejectNetworkTimeout},
		{"http", jsonrpc.NewHTTPError(http.StatusBadGateway, errors.New("bad gateway")), domain.RejectNetworkTimeout},
		{"plain", errors.New("boom"), domain.RejectUnknown},
		{"already classified", &domain.SubmissionError{Reason: domain.RejectInsufficientFunds}, domain.RejectInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.ReasonOf(classify(tt.err)); got != tt.want {
				t.Errorf("classify() reason = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_ConciseMessage(t *testing.T) {
	err := classify(&jsonrpc.RPCError{Code: -32002, Message: "Blockhash not found"})
	if msg := err.Error(); strings.Contains(msg, "\n") {
		t.Errorf("message spans lines: %q", msg)
	}
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		t.Error("classified error lost the underlying RPC error")
	}
}

func TestIsTransient(t *testing.T) {
	if isTransient(&jsonrpc.RPCError{Message: "x"}) {
		t.Error("RPC rejection should not be transient")
	}
	if isTransient(context.Canceled) {
		t.Error("cancellation should not be transient")
	}
	if !isTransient(jsonrpc.NewHTTPError(http.StatusServiceUnavailable, errors.New("unavailable"))) {
		t.Error("HTTP 503 should be transient")
	}
}

func TestClassifyStatusErr(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want domain.RejectReason
	}{
		{"custom 1", map[string]any{"InstructionError": []any{0, map[string]any{"Custom": 1}}}, domain.RejectInsufficientFunds},
		{"custom 4", map[string]any{"InstructionError": []any{1, map[string]any{"Custom": 4}}}, domain.RejectMalformedInstruction},
		{"blockhash", "BlockhashNotFound", domain.RejectStaleWindow},
		{"fee", "InsufficientFundsForFee", domain.RejectInsufficientFunds},
		{"other", "AccountInUse", domain.RejectUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.ReasonOf(classifyStatusErr(tt.in)); got != tt.want {
				t.Errorf("classifyStatusErr() reason = %q, want %q", got, tt.want)
			}
		})
	}
}
