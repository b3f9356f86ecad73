package crawler

import (
	"net/url"
	"strings"
)

// shouldCrawl applies the exclude-then-include-then-domain filter chain:
// reject on any exclude substring match; if include patterns are
// configured, require at least one match; if allowed domains are
// configured, require host membership.
func shouldCrawl(rawURL string, cfg Config) bool {
	for _, exclude := range cfg.ExcludePatterns {
		if strings.Contains(rawURL, exclude) {
			return false
		}
	}

	if len(cfg.IncludePatterns) > 0 {
		var matched bool
		for _, include := range cfg.IncludePatterns {
			if strings.Contains(rawURL, include) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(cfg.AllowedDomains) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return false
		}
		var allowed bool
		for _, domain := range cfg.AllowedDomains {
			if u.Host == domain {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return true
}
