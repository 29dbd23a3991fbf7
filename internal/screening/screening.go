// Package screening runs the proximity engine across the configured
// regulatory domains and assembles the per-point screening run. Independent
// domains run in a bounded worker pool; each domain's engine call stays
// synchronous internally.
package screening

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
	"github.com/sells-group/envscreen/internal/proximity"
)

// QuerierFactory builds the feature querier for a domain. The screener owns
// no network state itself; callers construct clients once and reuse them.
type QuerierFactory func(cfg DomainConfig) (feature.Querier, error)

// DomainResult is one domain's slice of a screening run. Error carries a
// domain-level failure (querier construction, invalid domain config); layer
// level failures live inside Result.Failures.
type DomainResult struct {
	Domain string            `json:"domain"`
	Title  string            `json:"title"`
	Result *proximity.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Run is a completed screening for one point.
type Run struct {
	ID        string         `json:"id"`
	Origin    geo.Point      `json:"origin"`
	CreatedAt time.Time      `json:"created_at"`
	Domains   []DomainResult `json:"domains"`
}

// Screener screens points against a set of domains.
type Screener struct {
	newQuerier  QuerierFactory
	concurrency int
}

// ScreenerOption configures a Screener.
type ScreenerOption func(*Screener)

// WithConcurrency bounds the number of domains analyzed in parallel.
func WithConcurrency(n int) ScreenerOption {
	return func(s *Screener) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New creates a Screener using the given querier factory.
func New(factory QuerierFactory, opts ...ScreenerOption) *Screener {
	s := &Screener{
		newQuerier:  factory,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Screen analyzes the origin against every domain. Only an invalid origin
// fails the call; a domain failure is recorded on its DomainResult and the
// rest proceed. Results keep the order of the domain configs.
func (s *Screener) Screen(ctx context.Context, origin geo.Point, domains []DomainConfig) (*Run, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if len(domains) == 0 {
		return nil, eris.New("screening: no domains configured")
	}

	run := &Run{
		ID:        uuid.New().String(),
		Origin:    origin,
		CreatedAt: time.Now().UTC(),
		Domains:   make([]DomainResult, len(domains)),
	}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)

	for i, domain := range domains {
		i, domain := i, domain
		eg.Go(func() error {
			run.Domains[i] = s.screenDomain(gCtx, origin, domain)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "screening: canceled")
	}
	return run, nil
}

func (s *Screener) screenDomain(ctx context.Context, origin geo.Point, domain DomainConfig) DomainResult {
	dr := DomainResult{Domain: domain.Name, Title: domain.Title}

	if err := domain.Validate(); err != nil {
		dr.Error = err.Error()
		return dr
	}

	q, err := s.newQuerier(domain)
	if err != nil {
		zap.L().Warn("screening: querier unavailable",
			zap.String("domain", domain.Name),
			zap.Error(err),
		)
		dr.Error = err.Error()
		return dr
	}

	res, err := proximity.Analyze(ctx, q, origin, domain.Proximity)
	if err != nil {
		// Analyze only fails on invalid input; record rather than abort so
		// the remaining domains still report.
		dr.Error = err.Error()
		return dr
	}

	zap.L().Info("domain screened",
		zap.String("domain", domain.Name),
		zap.Bool("intersects", res.Intersects),
		zap.Float64("search_radius_used", res.SearchRadiusUsed),
		zap.Int("features", len(res.FeaturesInRadius)),
		zap.Int("layer_failures", len(res.Failures)),
	)

	dr.Result = res
	return dr
}
