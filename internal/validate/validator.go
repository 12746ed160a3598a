package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/foretell/internal/fetch"
	"github.com/ppiankov/foretell/internal/model"
)

const checkMaxRetries = 3

// checkSleepFunc is the pause between retries; tests replace it
var checkSleepFunc = time.Sleep

// LinkChecker verifies that cited URLs still resolve
type LinkChecker struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	authority  *AuthorityClassifier
	now        func() time.Time
}

// NewLinkChecker creates a checker from the HTTP settings
func NewLinkChecker(cfg model.HTTPConfig, maxWorkers int, authority *AuthorityClassifier) *LinkChecker {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	if authority == nil {
		authority = NewAuthorityClassifier(nil)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &LinkChecker{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: fetch.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		userAgent:  cfg.UserAgent,
		authority:  authority,
		now:        time.Now,
	}
}

// Check verifies every citation concurrently. Results keep input order.
func (v *LinkChecker) Check(ctx context.Context, citations []model.Citation) []model.LinkCheck {
	results := make([]model.LinkCheck, len(citations))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, c := range citations {
		wg.Add(1)
		go func(idx int, c model.Citation) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.LinkCheck{
					Tag:   c.Tag,
					URL:   c.URL,
					Tier:  v.authority.Classify(c.URL),
					Error: "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.checkWithRetry(ctx, c)
		}(i, c)
	}

	wg.Wait()
	return results
}

func (v *LinkChecker) checkOne(ctx context.Context, c model.Citation) model.LinkCheck {
	result := model.LinkCheck{
		Tag:  c.Tag,
		URL:  c.URL,
		Tier: v.authority.Classify(c.URL),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.Dead = true
		return result
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Dead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Dead = true
	}

	if final := resp.Request.URL.String(); final != c.URL {
		result.RedirectURL = final
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			result.LastModified = &t
			age := int(v.now().Sub(t).Hours() / 24)
			result.AgeDays = &age
			result.Stale = age > 365
		}
	}

	return result
}

func (v *LinkChecker) checkWithRetry(ctx context.Context, c model.Citation) model.LinkCheck {
	var result model.LinkCheck
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		result = v.checkOne(ctx, c)
		if !isRetryableCheck(result) || ctx.Err() != nil {
			return result
		}
		if attempt < checkMaxRetries-1 {
			checkSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

func isRetryableCheck(result model.LinkCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(result.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
