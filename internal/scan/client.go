package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

var (
	// ErrNotFound means the service has no record for the digest.
	ErrNotFound = errors.New("reputation: digest unknown")
	// ErrPending means an analysis has not reached a terminal status yet.
	ErrPending = errors.New("reputation: analysis pending")
	// ErrPollExhausted means the attempt budget ran out before completion.
	ErrPollExhausted = errors.New("reputation: scan timed out waiting for completion")
	// ErrUndetermined means a report carried no engine results at all.
	ErrUndetermined = errors.New("reputation: no engine results")
)

// StatusError is returned for any unexpected HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reputation %s: unexpected status %d", e.Op, e.StatusCode)
}

const analysisCompleted = "completed"

// Client talks to a VirusTotal v3 compatible reputation API.
type Client struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	pollAttempts int
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewClient builds a client from scan configuration.
func NewClient(cfg config.ScanConfig, logger *zap.Logger) *Client {
	attempts := cfg.PollAttempts
	if attempts <= 0 {
		attempts = 10
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		http:         &http.Client{Timeout: cfg.HTTPTimeout},
		pollAttempts: attempts,
		pollInterval: interval,
		logger:       logger,
	}
}

type fileReport struct {
	Data struct {
		Attributes struct {
			LastAnalysisResults map[string]EngineResult `json:"last_analysis_results"`
			LastAnalysisStats   map[string]int          `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

type uploadResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type analysisReport struct {
	Data struct {
		Attributes struct {
			Status  string                  `json:"status"`
			Stats   map[string]int          `json:"stats"`
			Results map[string]EngineResult `json:"results"`
		} `json:"attributes"`
	} `json:"data"`
}

// Lookup fetches the verdict of a previously seen file by digest.
func (c *Client) Lookup(ctx context.Context, digest string) (Verdict, error) {
	digest, err := NormalizeDigest(digest)
	if err != nil {
		return Verdict{}, err
	}
	var report fileReport
	status, err := c.getJSON(ctx, "/files/"+digest, &report)
	if err != nil {
		return Verdict{}, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return Verdict{}, ErrNotFound
	default:
		return Verdict{}, &StatusError{Op: "lookup", StatusCode: status}
	}

	attrs := report.Data.Attributes
	var verdict Verdict
	if len(attrs.LastAnalysisResults) > 0 {
		verdict = Evaluate(attrs.LastAnalysisResults)
		if len(attrs.LastAnalysisStats) > 0 {
			verdict.Stats = attrs.LastAnalysisStats
		}
	} else {
		verdict = EvaluateStats(attrs.LastAnalysisStats)
	}
	return determined(verdict)
}

// Submit uploads content for first-time analysis and returns the analysis id.
func (c *Client) Submit(ctx context.Context, content []byte, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp uploadResponse
	status, err := c.do(req, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &StatusError{Op: "upload", StatusCode: status}
	}
	if resp.Data.ID == "" {
		return "", errors.New("reputation upload: empty analysis id")
	}
	return resp.Data.ID, nil
}

// CheckAnalysis queries an analysis once; ErrPending means it is still running.
func (c *Client) CheckAnalysis(ctx context.Context, analysisID string) (Verdict, error) {
	var report analysisReport
	status, err := c.getJSON(ctx, "/analyses/"+analysisID, &report)
	if err != nil {
		return Verdict{}, err
	}
	if status != http.StatusOK {
		return Verdict{}, &StatusError{Op: "analysis", StatusCode: status}
	}
	attrs := report.Data.Attributes
	if attrs.Status != analysisCompleted {
		return Verdict{}, ErrPending
	}
	if len(attrs.Stats) > 0 {
		return determined(EvaluateStats(attrs.Stats))
	}
	return determined(Evaluate(attrs.Results))
}

// determined rejects verdicts no engine contributed to.
func determined(v Verdict) (Verdict, error) {
	if v.TotalEngines == 0 {
		return Verdict{}, ErrUndetermined
	}
	return v, nil
}

// PollAnalysis waits for an analysis to complete, bounded by the attempt budget
// and by ctx.
func (c *Client) PollAnalysis(ctx context.Context, analysisID string) (Verdict, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		verdict, err := c.CheckAnalysis(ctx, analysisID)
		if err == nil {
			return verdict, nil
		}
		if !errors.Is(err, ErrPending) {
			return Verdict{}, err
		}
		c.logger.Debug("analysis pending",
			zap.String("analysis_id", analysisID),
			zap.Int("attempt", attempt))
		if attempt == c.pollAttempts {
			break
		}

		timer.Reset(c.pollInterval)
		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Verdict{}, ErrPollExhausted
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	return c.do(req, dst)
}

func (c *Client) do(req *http.Request, dst any) (int, error) {
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return resp.StatusCode, nil
}
