package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/pkg/log"
)

func testReport() domain.Report {
	var a domain.Address
	a[0] = 9
	records := []domain.OutcomeRecord{{ChunkIndex: 0, Recipients: []domain.Address{a}, Status: domain.StatusSucceeded}}
	return domain.Report{
		Run:      domain.RunInfo{ID: "run-42", StartedAt: time.Now()},
		EndState: "Completed",
		Records:  records,
		Summary:  domain.Summarize(records),
	}
}

func TestReportPoster_Write(t *testing.T) {
	var got map[string]any
	var auth, runID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		runID = r.Header.Get("X-Dropship-Run-Id")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewReportPoster(srv.Client(), srv.URL, "secret", log.NewNoopLogger())
	if err := p.Write(context.Background(), testReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if runID != "run-42" {
		t.Errorf("X-Dropship-Run-Id = %q", runID)
	}
	if got["end_state"] != "Completed" {
		t.Errorf("end_state = %v", got["end_state"])
	}
}

func TestReportPoster_Retries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   bool
	}{
		{name: "recovers after server error", statuses: []int{502, 200}, wantCalls: 2},
		{name: "gives up after attempts", statuses: []int{500, 500, 500}, wantCalls: 3, wantErr: true},
		{name: "client error is final", statuses: []int{401}, wantCalls: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				w.WriteHeader(tt.statuses[int(n)-1])
			}))
			defer srv.Close()

			p := NewReportPoster(srv.Client(), srv.URL, "", log.NewNoopLogger())
			p.delay = time.Millisecond
			err := p.Write(context.Background(), testReport())
			if tt.wantErr != (err != nil) {
				t.Fatalf("Write() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}
