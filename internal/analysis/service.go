// Package analysis runs an uploaded document through a provider and turns
// whatever comes back into a normalized DocumentRecord.
//
// Structured provider output goes straight to the normalizer. Plain text goes
// through the text extractor first; when a provider returns both, the text
// result fills the fields the structured output left blank. Results are
// cached by the sha256 of the upload, so the same bytes are only sent
// upstream once per cache lifetime. Two concurrent requests for the same new
// document may both reach the provider.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"cmrdocs/internal/cache"
	"cmrdocs/internal/extract"
	"cmrdocs/internal/logger"
	"cmrdocs/internal/normalize"
	"cmrdocs/pkg/models"
)

// StatusOK is the envelope status of a successful analysis.
const StatusOK = "ok"

// Result is the response envelope.
type Result struct {
	Status   string                `json:"status"`
	Analysis models.DocumentRecord `json:"analysis"`
	Cached   bool                  `json:"cached"`
	Hash     string                `json:"hash"`
	Provider string                `json:"provider"`
}

// Options tunes the upstream guards.
type Options struct {
	// RPM limits provider calls per minute (0 = unlimited).
	RPM   int
	Burst int

	// BreakerFailures consecutive provider failures open the breaker
	// (0 disables it). It stays open for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultOptions returns unlimited calls with a breaker after 5 failures.
func DefaultOptions() Options {
	return Options{
		Burst:           1,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Service analyzes uploads. It is safe for concurrent use.
type Service struct {
	provider Provider
	cache    cache.Cache
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[Output]
	log      zerolog.Logger
}

// NewService wires provider and c together. A nil cache disables caching.
func NewService(provider Provider, c cache.Cache, opts Options) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	log := logger.WithComponent("analysis")

	s := &Service{
		provider: provider,
		cache:    c,
		log:      log,
	}

	if opts.RPM > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(float64(opts.RPM)/60.0), burst)
	}

	if opts.BreakerFailures > 0 {
		failures := opts.BreakerFailures
		s.breaker = gobreaker.NewCircuitBreaker[Output](gobreaker.Settings{
			Name:    provider.Name(),
			Timeout: opts.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("provider", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Provider circuit breaker changed state")
			},
		})
	}

	return s
}

// Provider returns the name of the configured provider.
func (s *Service) Provider() string { return s.provider.Name() }

// Analyze validates u, serves it from cache when possible and otherwise asks
// the provider.
func (s *Service) Analyze(ctx context.Context, u Upload) (*Result, error) {
	const op = "Analyze"
	start := time.Now()

	log := logger.WithRequestID(uuid.NewString()).With().
		Str("component", "analysis").
		Str("filename", u.Filename).
		Int("size", len(u.Data)).
		Logger()

	mediaType, err := resolveMediaType(u)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected upload")
		return nil, &AnalysisError{Op: op, Err: err}
	}

	key := cache.Key(u.Data)
	result := &Result{Status: StatusOK, Hash: key, Provider: s.provider.Name()}

	rec, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("hash", key).Msg("Cache read failed")
	}
	if hit {
		log.Info().Str("hash", key).Msg("Served analysis from cache")
		result.Analysis = rec
		result.Cached = true
		return result, nil
	}

	out, err := s.call(ctx, Document{Data: u.Data, MediaType: mediaType})
	if err != nil {
		log.Error().Err(err).Str("hash", key).Msg("Provider call failed")
		return nil, err
	}

	result.Analysis = Record(out)

	if err := s.cache.Set(ctx, key, result.Analysis); err != nil {
		log.Warn().Err(err).Str("hash", key).Msg("Cache write failed")
	}

	log.Info().
		Str("hash", key).
		Str("media_type", mediaType).
		Bool("structured", out.Candidate != nil).
		Int("text_length", len(out.Text)).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis completed")

	return result, nil
}

func (s *Service) call(ctx context.Context, doc Document) (Output, error) {
	const op = "call"

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Output{}, &AnalysisError{Op: op, Err: err, Details: "rate limiter"}
		}
	}

	analyze := func() (Output, error) {
		return s.provider.Analyze(ctx, doc)
	}

	var (
		out Output
		err error
	)
	if s.breaker != nil {
		out, err = s.breaker.Execute(analyze)
	} else {
		out, err = analyze()
	}

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return Output{}, &AnalysisError{Op: op, Err: ErrProviderUnavailable, Details: err.Error()}
	default:
		return Output{}, &AnalysisError{Op: op, Err: errors.Join(ErrProviderFailed, err), Details: s.provider.Name()}
	}
}

// Record turns provider output into a normalized record. Structured fields
// win; text extraction only fills the blanks.
func Record(out Output) models.DocumentRecord {
	var fromText models.DocumentRecord
	if out.Text != "" {
		fromText = normalize.NormalizeValue(extract.FromText(out.Text).Tree())
	}
	if out.Candidate == nil {
		return fromText
	}

	rec := normalize.Normalize(*out.Candidate)
	rec.Backfill(fromText)
	return rec
}
