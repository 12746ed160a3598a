// Package validate decides which publishers count as evidence and checks
// that cited links still resolve.
package validate

import (
	"net"
	"net/url"
	"strings"

	"github.com/ppiankov/foretell/internal/model"
)

// AuthorityClassifier maps URLs onto the trusted-domain tiers
type AuthorityClassifier struct {
	primary   []string
	secondary []string
}

// NewAuthorityClassifier creates a classifier. A nil config uses the defaults.
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	a := &AuthorityClassifier{}
	for _, d := range config.PrimaryDomains {
		a.primary = append(a.primary, strings.ToLower(d))
	}
	for _, d := range config.SecondaryDomains {
		a.secondary = append(a.secondary, strings.ToLower(d))
	}
	return a
}

// Host returns the lower-cased host of rawURL without port, or "" when
// the URL cannot be parsed
func Host(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := parsed.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// BelongsTo reports whether host is domain or one of its subdomains
func BelongsTo(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// TrustedDomain returns the allow-listed domain rawURL belongs to
func (a *AuthorityClassifier) TrustedDomain(rawURL string) (string, bool) {
	host := Host(rawURL)
	if host == "" {
		return "", false
	}
	for _, d := range a.primary {
		if BelongsTo(host, d) {
			return d, true
		}
	}
	for _, d := range a.secondary {
		if BelongsTo(host, d) {
			return d, true
		}
	}
	return "", false
}

// Classify returns the tier of rawURL
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	host := Host(rawURL)
	if host == "" {
		return model.TierUntrusted
	}
	for _, d := range a.primary {
		if BelongsTo(host, d) {
			return model.TierPrimary
		}
	}
	for _, d := range a.secondary {
		if BelongsTo(host, d) {
			return model.TierSecondary
		}
	}
	return model.TierUntrusted
}

// Domains lists every trusted domain, primary tier first
func (a *AuthorityClassifier) Domains() []string {
	out := make([]string, 0, len(a.primary)+len(a.secondary))
	out = append(out, a.primary...)
	return append(out, a.secondary...)
}

// Confidence labels a tier for forecast entries
func Confidence(tier model.AuthorityTier) string {
	switch tier {
	case model.TierPrimary:
		return "high"
	case model.TierSecondary:
		return "medium"
	default:
		return "low"
	}
}
