package dropship

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
)

func addr(i int) Address {
	var a Address
	a[0] = byte(i + 1)
	a[1] = byte(i >> 8)
	a[31] = 0xAA
	return a
}

func addrs(n int) []Address {
	out := make([]Address, n)
	for i := range out {
		out[i] = addr(i)
	}
	return out
}

type memSource struct {
	res LoadResult
	err error
}

func (m memSource) Load(context.Context) (LoadResult, error) {
	return m.res, m.err
}

type stubLedger struct {
	authority Address
	fetchErr  error
	fail      map[int]bool

	entered chan struct{}
	release chan struct{}

	mu        sync.Mutex
	submitted []Operation
}

func (l *stubLedger) Authority() domain.Address { return l.authority }

func (l *stubLedger) FetchWindow(ctx context.Context) (FreshnessWindow, error) {
	if l.entered != nil {
		close(l.entered)
		<-l.release
	}
	if l.fetchErr != nil {
		return FreshnessWindow{}, &domain.WindowFetchError{Err: l.fetchErr}
	}
	return FreshnessWindow{Reference: "ref", ExpiryHeight: 100, FetchedAt: time.Now()}, nil
}

func (l *stubLedger) Submit(ctx context.Context, op *Operation) (Ticket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitted = append(l.submitted, *op)
	return Ticket{Signature: fmt.Sprintf("sig-%d", op.Chunk.Index)}, nil
}

func (l *stubLedger) AwaitConfirmation(ctx context.Context, t Ticket) error {
	if l.fail[t.ChunkIndex] {
		return &domain.SubmissionError{Reason: domain.RejectInsufficientFunds, Err: errors.New("low balance")}
	}
	return nil
}

type recordingSink struct {
	reports []Report
	err     error
}

func (s *recordingSink) Write(_ context.Context, r Report) error {
	s.reports = append(s.reports, r)
	return s.err
}

type recordingHandler struct {
	NoopEventHandler
	mu       sync.Mutex
	states   []State
	issued   int
	recorded int
}

func (h *recordingHandler) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, e.Current)
}

func (h *recordingHandler) OnChunkIssued(ChunkIssuedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.issued++
}

func (h *recordingHandler) OnChunkRecorded(OutcomeRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recorded++
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SourceAccount = addr(1000)
	cfg.Amount = 5
	cfg.MinSubmitDelay = 0
	return cfg
}

func TestNew_Validation(t *testing.T) {
	ledger := &stubLedger{authority: addr(2000)}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "chunk size zero", mutate: func(c *Config) { c.ChunkSize = 0 }, wantErr: ErrInvalidChunkSize},
		{name: "chunk size too large", mutate: func(c *Config) { c.ChunkSize = domain.MaxChunkSize + 1 }, wantErr: ErrInvalidChunkSize},
		{name: "missing source", mutate: func(c *Config) { c.SourceAccount = Address{} }, wantErr: ErrInvalidConfig},
		{name: "zero amount", mutate: func(c *Config) { c.Amount = 0 }, wantErr: ErrInvalidConfig},
		{name: "negative budget", mutate: func(c *Config) { c.MaxDuration = -time.Second }, wantErr: ErrInvalidConfig},
		{name: "no in-flight slots", mutate: func(c *Config) { c.MaxInFlight = 0 }, wantErr: ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, ledger)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("New() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := New(testConfig(), nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(nil ledger) error = %v, want ErrInvalidConfig", err)
	}
}

func TestNew_AuthorityFromLedger(t *testing.T) {
	d, err := New(testConfig(), &stubLedger{authority: addr(2000)})
	if err != nil {
		t.Fatal(err)
	}
	if d.Config().Authority != addr(2000) {
		t.Errorf("Authority = %v, want %v", d.Config().Authority, addr(2000))
	}

	if _, err := New(testConfig(), &stubLedger{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() without authority error = %v, want ErrInvalidConfig", err)
	}
}

func TestRun_Success(t *testing.T) {
	ledger := &stubLedger{authority: addr(2000)}
	sink := &recordingSink{}
	handler := &recordingHandler{}
	d, err := New(testConfig(), ledger, WithReportSink(sink), WithEventHandler(handler))
	if err != nil {
		t.Fatal(err)
	}

	rejected := []DecodeError{{Line: 3, Content: "nope", Err: errors.New("bad base58")}}
	report, err := d.Run(context.Background(), memSource{res: LoadResult{Addresses: addrs(50), Rejected: rejected}})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := len(report.Summary.Succeeded); got != 50 {
		t.Errorf("succeeded = %d, want 50", got)
	}
	if len(report.Summary.Failed)+len(report.Summary.Skipped) != 0 {
		t.Errorf("unexpected failures: %+v", report.Summary)
	}
	if len(report.Records) != 3 {
		t.Errorf("records = %d, want 3", len(report.Records))
	}
	if len(report.Rejected) != 1 || report.Rejected[0].Line != 3 {
		t.Errorf("Rejected = %+v", report.Rejected)
	}
	if report.EndState != "Completed" {
		t.Errorf("EndState = %q, want Completed", report.EndState)
	}
	if len(sink.reports) != 1 || sink.reports[0].Run.ID != report.Run.ID {
		t.Errorf("sink received %d reports", len(sink.reports))
	}

	for _, op := range ledger.submitted {
		for i, ins := range op.Instructions {
			if ins.Destination != op.Chunk.Recipients[i] || ins.Amount != 5 || ins.Authority != addr(2000) {
				t.Fatalf("chunk %d instruction %d = %+v", op.Chunk.Index, i, ins)
			}
		}
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if handler.issued != 3 || handler.recorded != 3 {
		t.Errorf("issued/recorded = %d/%d, want 3/3", handler.issued, handler.recorded)
	}
	want := []State{StateRunning, StateCompleted, StateTerminated}
	if fmt.Sprint(handler.states) != fmt.Sprint(want) {
		t.Errorf("states = %v, want %v", handler.states, want)
	}
}

func TestRun_FailureIsolated(t *testing.T) {
	ledger := &stubLedger{authority: addr(2000), fail: map[int]bool{1: true}}
	d, err := New(testConfig(), ledger)
	if err != nil {
		t.Fatal(err)
	}
	report, err := d.Run(context.Background(), memSource{res: LoadResult{Addresses: addrs(50)}})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(report.Summary.Succeeded) != 28 || len(report.Summary.Failed) != 22 {
		t.Errorf("summary = %d/%d, want 28/22", len(report.Summary.Succeeded), len(report.Summary.Failed))
	}
	if report.Records[1].RejectReason != domain.RejectInsufficientFunds {
		t.Errorf("reason = %q", report.Records[1].RejectReason)
	}
}

func TestRun_Dedupe(t *testing.T) {
	list := append(addrs(10), addr(0), addr(3))

	tests := []struct {
		dedupe     bool
		wantTotal  int
		duplicates int
	}{
		{dedupe: false, wantTotal: 12},
		{dedupe: true, wantTotal: 10, duplicates: 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("dedupe=%v", tt.dedupe), func(t *testing.T) {
			cfg := testConfig()
			cfg.Dedupe = tt.dedupe
			d, err := New(cfg, &stubLedger{authority: addr(2000)})
			if err != nil {
				t.Fatal(err)
			}
			report, err := d.Run(context.Background(), memSource{res: LoadResult{Addresses: list}})
			if err != nil {
				t.Fatal(err)
			}
			if got := report.Summary.Total(); got != tt.wantTotal {
				t.Errorf("total = %d, want %d", got, tt.wantTotal)
			}
			if report.Duplicates != tt.duplicates {
				t.Errorf("Duplicates = %d, want %d", report.Duplicates, tt.duplicates)
			}
		})
	}
}

func TestRun_SourceError(t *testing.T) {
	sink := &recordingSink{}
	d, err := New(testConfig(), &stubLedger{authority: addr(2000)}, WithReportSink(sink))
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Run(context.Background(), memSource{err: fmt.Errorf("%w: gone", domain.ErrSourceUnavailable)})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Run() error = %v, want ErrSourceUnavailable", err)
	}
	if len(sink.reports) != 0 {
		t.Error("sink written for a run that never started")
	}
}

func TestRun_InitialWindowFailure(t *testing.T) {
	sink := &recordingSink{}
	ledger := &stubLedger{authority: addr(2000), fetchErr: domain.ErrNetworkUnavailable}
	d, err := New(testConfig(), ledger, WithReportSink(sink))
	if err != nil {
		t.Fatal(err)
	}
	report, err := d.Run(context.Background(), memSource{res: LoadResult{Addresses: addrs(5)}})
	var wfe *domain.WindowFetchError
	if !errors.As(err, &wfe) {
		t.Fatalf("Run() error = %v, want *WindowFetchError", err)
	}
	if len(report.Records) != 0 || len(ledger.submitted) != 0 {
		t.Errorf("records = %d, submitted = %d, want none", len(report.Records), len(ledger.submitted))
	}
	if len(sink.reports) != 0 {
		t.Error("sink written for an aborted run")
	}
}

func TestRun_SinkErrorKeepsReport(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	d, err := New(testConfig(), &stubLedger{authority: addr(2000)}, WithReportSink(failing), WithReportSink(ok))
	if err != nil {
		t.Fatal(err)
	}
	report, err := d.Run(context.Background(), memSource{res: LoadResult{Addresses: addrs(3)}})
	if err == nil {
		t.Fatal("Run() expected sink error")
	}
	if len(report.Summary.Succeeded) != 3 {
		t.Errorf("succeeded = %d, want 3", len(report.Summary.Succeeded))
	}
	if len(ok.reports) != 1 {
		t.Error("later sinks must still be written")
	}
}

func TestRun_AlreadyRunning(t *testing.T) {
	ledger := &stubLedger{
		authority: addr(2000),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	d, err := New(testConfig(), ledger)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := d.Run(context.Background(), memSource{res: LoadResult{Addresses: addrs(2)}})
		done <- err
	}()

	<-ledger.entered
	if _, err := d.Run(context.Background(), memSource{res: LoadResult{Addresses: addrs(2)}}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
	close(ledger.release)
	if err := <-done; err != nil {
		t.Errorf("first Run() error: %v", err)
	}
}
