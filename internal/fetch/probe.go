package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// ProbeConfig controls the plain-HTTP collector.
type ProbeConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// CollyProbe performs single-page GETs using a Colly collector.
type CollyProbe struct {
	cfg  ProbeConfig
	base *colly.Collector
}

// NewCollyProbe builds a probe. The target is a single known site, so
// robots handling stays at Colly's defaults.
func NewCollyProbe(cfg ProbeConfig) *CollyProbe {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)
	return &CollyProbe{cfg: cfg, base: c}
}

// Get fetches one URL and returns the response body.
func (p *CollyProbe) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("probe canceled: %w", err)
	}

	collector := p.base.Clone()

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil {
		return nil, fmt.Errorf("probe visit %s: %w", url, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("probe fetch %s: %w", url, fetchErr)
	}
	return body, nil
}
