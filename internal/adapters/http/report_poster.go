package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// ReportPoster implements ports.ReportSink by POSTing the report as JSON.
type ReportPoster struct {
	client   ports.HTTPClient
	url      string
	authKey  string
	attempts uint
	delay    time.Duration
	logger   ports.Logger
}

// NewReportPoster creates a poster for url. authKey is sent as a bearer
// token when non-empty.
func NewReportPoster(client ports.HTTPClient, url, authKey string, logger ports.Logger) *ReportPoster {
	return &ReportPoster{
		client:   client,
		url:      url,
		authKey:  authKey,
		attempts: 3,
		delay:    time.Second,
		logger:   logger,
	}
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.code, e.body)
}

// Write posts report, retrying transport failures and 5xx responses.
func (p *ReportPoster) Write(ctx context.Context, report domain.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	return retry.Do(
		func() error { return p.post(ctx, body, report.Run.ID) },
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.code >= 500
			}
			return true
		}),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("report post failed, retrying",
				ports.String("url", p.url),
				ports.Int("attempt", int(n)+1),
				ports.Err(err),
			)
		}),
	)
}

func (p *ReportPoster) post(ctx context.Context, body []byte, runID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if p.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.authKey)
	}
	req.Header.Set("X-Dropship-Run-Id", runID)
	req.Header.Set("X-Agent-Hostname", hostname())
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &statusError{code: resp.StatusCode, body: string(respBody)}
	}
	return nil
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
