// Package search aggregates site-restricted queries over the trusted
// publisher allow-list.
package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/foretell/internal/logging"
	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/validate"
)

// searchSleepFunc is the politeness pause between domains; tests replace it
var searchSleepFunc = time.Sleep

// ErrAllDomainsFailed is reported by SearchDetailed when no domain answered
var ErrAllDomainsFailed = errors.New("all domains failed")

// Searcher runs one query against a search backend
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// DomainResult is the outcome of querying a single domain
type DomainResult struct {
	Domain  string
	Results []model.SearchResult
	Err     error
}

// Outcome is the aggregated result of one Search call
type Outcome struct {
	Results  []model.SearchResult
	Domains  []DomainResult
	Failures []DomainResult
}

// Err returns ErrAllDomainsFailed when every domain failed
func (o *Outcome) Err() error {
	if len(o.Domains) > 0 && len(o.Failures) == len(o.Domains) {
		return fmt.Errorf("%w: %d domains", ErrAllDomainsFailed, len(o.Failures))
	}
	return nil
}

// Aggregator queries each allow-listed domain in order and merges the hits
type Aggregator struct {
	backend  Searcher
	domains  []string
	delayMin time.Duration
	delayMax time.Duration
	logger   *log.Logger

	// OnDomain is called after each domain query
	OnDomain func(r DomainResult)
}

// NewAggregator creates an aggregator over cfg.Domains, or the default
// allow-list when none are configured
func NewAggregator(backend Searcher, cfg model.SearchConfig, logger *log.Logger) *Aggregator {
	domains := cfg.Domains
	if len(domains) == 0 {
		domains = model.TrustedDomains
	}
	delayMin, delayMax := cfg.DelayMin, cfg.DelayMax
	if delayMin < 0 {
		delayMin = 0
	}
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &Aggregator{
		backend:  backend,
		domains:  append([]string(nil), domains...),
		delayMin: delayMin,
		delayMax: delayMax,
		logger:   logging.OrDiscard(logger),
	}
}

// Search returns at most maxResults unique results. Failures are logged
// and never returned; total failure yields an empty slice.
func (a *Aggregator) Search(ctx context.Context, query string, maxResults int) []model.SearchResult {
	return a.SearchDetailed(ctx, query, maxResults).Results
}

// SearchDetailed is Search with the per-domain outcomes kept
func (a *Aggregator) SearchDetailed(ctx context.Context, query string, maxResults int) *Outcome {
	out := &Outcome{Results: []model.SearchResult{}}
	if maxResults <= 0 || len(a.domains) == 0 {
		return out
	}
	perDomain := maxResults/len(a.domains) + 1

	var all []model.SearchResult
	for i, domain := range a.domains {
		if i > 0 {
			a.pause()
		}

		r := a.queryDomain(ctx, domain, query, perDomain)
		out.Domains = append(out.Domains, r)
		if r.Err != nil {
			out.Failures = append(out.Failures, r)
			a.logger.Warn("search failed", "domain", domain, "err", r.Err)
		} else {
			all = append(all, r.Results...)
		}
		if a.OnDomain != nil {
			a.OnDomain(r)
		}
	}

	seen := make(map[string]bool, len(all))
	for _, res := range all {
		if seen[res.URL] {
			continue
		}
		seen[res.URL] = true
		out.Results = append(out.Results, res)
		if len(out.Results) >= maxResults {
			break
		}
	}

	a.logger.Debug("search complete", "query", query, "results", len(out.Results), "failed", len(out.Failures))
	return out
}

func (a *Aggregator) queryDomain(ctx context.Context, domain, query string, limit int) DomainResult {
	r := DomainResult{Domain: domain}
	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}

	hits, err := a.backend.Search(ctx, "site:"+domain+" "+query)
	if err != nil {
		r.Err = err
		return r
	}

	for _, h := range hits {
		host := h.Domain
		if host == "" {
			host = validate.Host(h.URL)
		}
		if !validate.BelongsTo(host, domain) {
			continue
		}
		r.Results = append(r.Results, h)
		if len(r.Results) >= limit {
			break
		}
	}
	return r
}

func (a *Aggregator) pause() {
	d := a.delayMin
	if span := a.delayMax - a.delayMin; span > 0 {
		d += rand.N(span)
	}
	if d > 0 {
		searchSleepFunc(d)
	}
}
