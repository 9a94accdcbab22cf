package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrDisabled is returned when no reputation service is configured.
var ErrDisabled = errors.New("reputation scanning disabled")

// Reputation is the protocol consumed by the Scanner.
type Reputation interface {
	Lookup(ctx context.Context, digest string) (Verdict, error)
	Submit(ctx context.Context, content []byte, filename string) (string, error)
	PollAnalysis(ctx context.Context, analysisID string) (Verdict, error)
}

// Stage names a step of the scan for logs and errors.
type Stage string

const (
	StageHashing   Stage = "hashing"
	StageLookup    Stage = "lookup"
	StageUploading Stage = "uploading"
	StagePolling   Stage = "polling"
)

// Error wraps a transient failure with the stage that produced it.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of scanning one file.
type Result struct {
	Digest   string
	Verdict  Verdict
	Uploaded bool
	Cached   bool
}

// Scanner hashes content and resolves a verdict: lookup first, upload and
// poll only when the digest is unknown.
type Scanner struct {
	reputation Reputation
	cache      VerdictCache
	logger     *zap.Logger
}

// NewScanner builds a scanner. reputation may be nil to disable scanning; cache may be nil.
func NewScanner(reputation Reputation, cache VerdictCache, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{reputation: reputation, cache: cache, logger: logger}
}

// Enabled reports whether a reputation backend is wired.
func (s *Scanner) Enabled() bool {
	return s != nil && s.reputation != nil
}

// Scan resolves a verdict for content.
func (s *Scanner) Scan(ctx context.Context, content []byte, filename string) (Result, error) {
	if !s.Enabled() {
		return Result{}, ErrDisabled
	}

	digest, err := Digest(bytes.NewReader(content))
	if err != nil {
		return Result{}, &Error{Stage: StageHashing, Err: err}
	}
	result := Result{Digest: digest}
	log := s.logger.With(zap.String("digest", digest), zap.String("file", filename))

	if s.cache != nil {
		if verdict, ok := s.cache.Get(ctx, digest); ok && verdict.TotalEngines > 0 {
			log.Debug("verdict cache hit")
			result.Verdict = verdict
			result.Cached = true
			return result, nil
		}
	}

	log.Debug("scan state", zap.String("stage", string(StageLookup)))
	verdict, err := s.reputation.Lookup(ctx, digest)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		log.Debug("scan state", zap.String("stage", string(StageUploading)))
		analysisID, err := s.reputation.Submit(ctx, content, filename)
		if err != nil {
			return result, &Error{Stage: StageUploading, Err: err}
		}
		result.Uploaded = true

		log.Debug("scan state", zap.String("stage", string(StagePolling)), zap.String("analysis_id", analysisID))
		verdict, err = s.reputation.PollAnalysis(ctx, analysisID)
		if err != nil {
			return result, &Error{Stage: StagePolling, Err: err}
		}
	default:
		return result, &Error{Stage: StageLookup, Err: err}
	}

	if verdict.TotalEngines == 0 {
		stage := StageLookup
		if result.Uploaded {
			stage = StagePolling
		}
		return result, &Error{Stage: stage, Err: ErrUndetermined}
	}

	result.Verdict = verdict
	if s.cache != nil {
		s.cache.Set(ctx, digest, verdict)
	}
	return result, nil
}
