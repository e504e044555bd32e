package imagery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/domain"
	"github.com/sony/gobreaker"
)

// Config holds provider settings.
type Config struct {
	Timeout      time.Duration // bounds one fetch, generation and encoding included
	DisplaySize  int
	UpscaleFakes bool
}

// Provider turns the oracle and the corpus into stored, labelled artifacts.
type Provider struct {
	store    domain.ArtifactStore
	oracle   domain.Oracle
	corpus   domain.Corpus
	degrader domain.Degrader
	rnd      domain.Random
	cfg      Config
	metrics  *metrics.ProviderMetrics
}

func NewProvider(
	store domain.ArtifactStore,
	oracle domain.Oracle,
	corpus domain.Corpus,
	degrader domain.Degrader,
	rnd domain.Random,
	cfg Config,
	m *metrics.ProviderMetrics,
) *Provider {
	return &Provider{
		store:    store,
		oracle:   oracle,
		corpus:   corpus,
		degrader: degrader,
		rnd:      rnd,
		cfg:      cfg,
		metrics:  m,
	}
}

// FetchNext flips a fair coin and fetches a fake or a real image accordingly.
// The returned label always matches the stored artifact; on error nothing
// was stored.
func (p *Provider) FetchNext(ctx context.Context) (domain.ArtifactID, bool, error) {
	isFake := p.rnd.Bool()
	if isFake {
		id, err := p.FetchFake(ctx)
		return id, true, err
	}
	id, err := p.FetchReal(ctx)
	return id, false, err
}

func (p *Provider) FetchFake(ctx context.Context) (domain.ArtifactID, error) {
	return p.fetch(ctx, domain.KindFake, p.renderFake)
}

func (p *Provider) FetchReal(ctx context.Context) (domain.ArtifactID, error) {
	return p.fetch(ctx, domain.KindReal, p.renderReal)
}

// CheckCorpus reports ErrEmptyCorpus when there is nothing to pick reals from.
func (p *Provider) CheckCorpus(ctx context.Context) error {
	n, err := p.corpus.Size(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEmptyCorpus
	}
	return nil
}

func (p *Provider) renderFake(ctx context.Context) ([]byte, error) {
	img, err := p.oracle.Synthesize(ctx, p.rnd.Int64())
	if err != nil {
		return nil, err
	}
	if p.cfg.UpscaleFakes {
		img = imaging.Resize(img, p.cfg.DisplaySize, p.cfg.DisplaySize, imaging.Lanczos)
	}
	return encodeJPEG(img)
}

func (p *Provider) renderReal(ctx context.Context) ([]byte, error) {
	img, err := p.corpus.PickRandom(ctx, p.rnd.IntN)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(p.degrader.Degrade(img))
}

type renderResult struct {
	payload []byte
	err     error
}

// fetch renders on a separate goroutine so a slow source cannot hold the
// caller past the deadline. A payload that arrives late is dropped and never
// reaches the store.
func (p *Provider) fetch(ctx context.Context, kind domain.Kind, render func(context.Context) ([]byte, error)) (domain.ArtifactID, error) {
	start := time.Now()
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	done := make(chan renderResult, 1)
	go func() {
		payload, err := render(ctx)
		done <- renderResult{payload: payload, err: err}
	}()

	var res renderResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = renderResult{err: ctx.Err()}
	}
	if res.err != nil {
		return "", p.fail(ctx, kind, res.err)
	}

	id, err := p.store.Create(ctx, kind, res.payload)
	if err != nil {
		p.metrics.Failures.WithLabelValues(string(kind), "store").Inc()
		return "", fmt.Errorf("%w: store %s image: %w", domain.ErrProviderUnavailable, kind, err)
	}

	p.metrics.FetchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	return id, nil
}

func (p *Provider) fail(ctx context.Context, kind domain.Kind, err error) error {
	reason := failureReason(err)
	p.metrics.Failures.WithLabelValues(string(kind), reason).Inc()
	slog.WarnContext(ctx, "Image fetch failed", "kind", string(kind), "reason", reason, "error", err)
	return fmt.Errorf("%w: %s image: %w", domain.ErrProviderUnavailable, kind, err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCorpus):
		return "empty_corpus"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	default:
		return "error"
	}
}
