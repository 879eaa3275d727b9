package policy

import "time"

// Rule is a single `(glob, CacheRule)` pair as read from configuration.
// Ttl and Stale are pointers because either field may be absent, meaning
// "inherit the default"; Bypass overrides every other field when true.
type Rule struct {
	Glob   string
	Ttl    *time.Duration
	Stale  *time.Duration
	Bypass bool
}

// Policy is the fully-resolved, never-absent triple applied to a request.
type Policy struct {
	TTL           time.Duration
	StaleIfError  time.Duration
	Bypass        bool
}

// Resolver holds the ordered rule list and defaults loaded from Config. It
// is immutable after construction and safe to call concurrently from many
// handler goroutines — Resolve does no I/O and takes no locks.
type Resolver struct {
	rules        []Rule
	defaultTTL   time.Duration
	defaultStale time.Duration
}

// NewResolver builds a Resolver. rules must already be in configuration
// order; the first matching rule wins.
func NewResolver(rules []Rule, defaultTTL, defaultStaleIfError time.Duration) *Resolver {
	return &Resolver{
		rules:        rules,
		defaultTTL:   defaultTTL,
		defaultStale: defaultStaleIfError,
	}
}

// Resolve maps a request path to its effective policy. It is total: a path
// matching no rule falls back to the configured defaults with bypass=false.
func (r *Resolver) Resolve(path string) Policy {
	for _, rule := range r.rules {
		if !matchGlob(rule.Glob, path) {
			continue
		}
		if rule.Bypass {
			return Policy{Bypass: true}
		}
		ttl := r.defaultTTL
		if rule.Ttl != nil {
			ttl = *rule.Ttl
		}
		stale := r.defaultStale
		if rule.Stale != nil {
			stale = *rule.Stale
		}
		return Policy{TTL: ttl, StaleIfError: stale, Bypass: false}
	}
	return Policy{TTL: r.defaultTTL, StaleIfError: r.defaultStale, Bypass: false}
}
