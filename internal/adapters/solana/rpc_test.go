package solana

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// rpcHandler answers one JSON-RPC method. It returns either a result or an
// error object (map with code and message).
type rpcHandler func(params []json.RawMessage) (result any, rpcErr map[string]any)

// fakeRPC is a minimal JSON-RPC server keyed by method name.
type fakeRPC struct {
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
	status   int
}

func newFakeRPC(t *testing.T) (*fakeRPC, string) {
	t.Helper()
	f := &fakeRPC{
		handlers: make(map[string]rpcHandler),
		calls:    make(map[string]int),
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func (f *fakeRPC) on(method string, h rpcHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeRPC) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRPC) failWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeRPC) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     any               `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls[req.Method]++
	h := f.handlers[req.Method]
	status := f.status
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "unavailable", status)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if h == nil {
		resp["error"] = map[string]any{"code": -32601, "message": "Method not found"}
	} else {
		result, rpcErr := h(req.Params)
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func withContext(value any) map[string]any {
	return map[string]any{
		"context": map[string]any{"slot": 1},
		"value":   value,
	}
}
