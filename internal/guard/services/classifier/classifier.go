// Package classifier evaluates a candidate URL against the snapshot's
// domain, keyword, and whitelist rules. Classification is independent of
// the clock, so verdicts are cacheable per snapshot generation.
package classifier

import (
	"strings"
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/amanahapps/guardian/internal/guard/common/log"
	"github.com/amanahapps/guardian/internal/guard/common/urlutil"
	"github.com/amanahapps/guardian/internal/guard/domain"
)

// bloomFPRate is the target false-positive rate for the domain filter.
// A false positive only costs one map walk, never a wrong verdict.
const bloomFPRate = 0.01

// Classifier classifies URLs against the current rule snapshot. It keeps
// a compiled matcher and an LRU verdict cache, both scoped to one snapshot
// generation and rebuilt when the generation changes.
type Classifier struct {
	logger    log.Logger
	cacheSize int

	mu       sync.Mutex
	gen      uint64
	compiled *matcher
	verdicts *lru.Cache[string, domain.BlockVerdict]
}

// New creates a Classifier. cacheSize <= 0 disables the verdict cache.
func New(cacheSize int, logger log.Logger) *Classifier {
	return &Classifier{logger: logger, cacheSize: cacheSize}
}

// Classify returns the rule-layer verdict for rawURL under snap.
//
// Strict mode is an allow-list and supersedes the blocklist entirely; the
// keyword scan runs in every mode as a defense-in-depth layer, since a
// whitelisted domain can still carry a blocked query-string keyword.
// Unparseable hosts fail open in blocklist mode (keyword-only checking)
// and fail closed in strict mode; under strict mode the bias favors safety.
func (c *Classifier) Classify(rawURL string, snap domain.RuleSnapshot) domain.BlockVerdict {
	m := c.matcherFor(snap)
	key := strings.ToLower(rawURL)

	if v, ok := c.cachedVerdict(key); ok {
		return v
	}
	v := m.classify(rawURL, key)
	c.storeVerdict(key, v)
	return v
}

// matcherFor returns the compiled matcher for snap's generation,
// compiling it (and purging stale verdicts) when the generation moved.
func (c *Classifier) matcherFor(snap domain.RuleSnapshot) *matcher {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.compiled != nil && c.gen == snap.Generation {
		return c.compiled
	}

	c.compiled = compile(snap)
	c.gen = snap.Generation
	if c.verdicts != nil {
		c.verdicts.Purge()
	} else if c.cacheSize > 0 {
		cache, err := lru.New[string, domain.BlockVerdict](c.cacheSize)
		if err == nil {
			c.verdicts = cache
		} else {
			c.logger.Warn(map[string]any{"error": err.Error()}, "verdict cache disabled")
		}
	}
	c.logger.Debug(map[string]any{
		"generation": snap.Generation,
		"domains":    len(snap.Rules.Domains),
		"keywords":   len(snap.Rules.Keywords),
		"whitelist":  len(snap.Whitelist.Domains),
		"strict":     snap.Settings.StrictMode,
	}, "rule matcher compiled")
	return c.compiled
}

func (c *Classifier) cachedVerdict(key string) (domain.BlockVerdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verdicts == nil {
		return domain.BlockVerdict{}, false
	}
	return c.verdicts.Get(key)
}

func (c *Classifier) storeVerdict(key string, v domain.BlockVerdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verdicts != nil {
		c.verdicts.Add(key, v)
	}
}

// matcher is one snapshot's rules in matchable form: canonical sets for
// membership, a Bloom filter as a fast negative path over the blocklist,
// and the lowercase keyword list.
type matcher struct {
	strict    bool
	blocked   map[string]struct{}
	bloom     *bitsbloom.BloomFilter
	whitelist []string
	keywords  []string
}

func compile(snap domain.RuleSnapshot) *matcher {
	m := &matcher{
		strict:    snap.Settings.StrictMode,
		blocked:   canonicalSet(snap.Rules.Domains),
		whitelist: canonicalList(snap.Whitelist.Domains),
	}
	for _, kw := range snap.Rules.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			m.keywords = append(m.keywords, kw)
		}
	}
	if n := len(m.blocked); n > 0 {
		bf := bitsbloom.NewWithEstimates(uint(n), bloomFPRate)
		for d := range m.blocked {
			bf.AddString(d)
		}
		m.bloom = bf
	}
	return m
}

func (m *matcher) classify(rawURL, lowerURL string) domain.BlockVerdict {
	host, err := urlutil.NormalizeHost(rawURL)

	if m.strict {
		if err != nil {
			// cannot prove the host is whitelisted
			return domain.Block(domain.ReasonWhitelist, "malformed_url")
		}
		if !m.whitelisted(host) {
			return domain.Block(domain.ReasonWhitelist, host)
		}
	} else if err == nil {
		if rule, ok := matchDomain(host, m.blocked, m.bloom); ok {
			return domain.Block(domain.ReasonDomain, rule)
		}
	}

	if kw, ok := m.matchKeyword(lowerURL); ok {
		return domain.Block(domain.ReasonKeyword, kw)
	}
	return domain.Allowed()
}

// whitelisted walks the allow-list directly; strict-mode whitelists are
// small, so a linear MatchesDomain scan beats maintaining a second index.
func (m *matcher) whitelisted(host string) bool {
	for _, rule := range m.whitelist {
		if urlutil.MatchesDomain(host, rule) {
			return true
		}
	}
	return false
}

func (m *matcher) matchKeyword(lowerURL string) (string, bool) {
	for _, kw := range m.keywords {
		if strings.Contains(lowerURL, kw) {
			return kw, true
		}
	}
	return "", false
}

// matchDomain walks host and each parent suffix (label by label, so the
// dot separator is required and "notexample.com" never matches rule
// "example.com") against the rule set. The Bloom filter short-circuits
// definite misses before the map lookup.
func matchDomain(host string, set map[string]struct{}, bf *bitsbloom.BloomFilter) (string, bool) {
	if len(set) == 0 {
		return "", false
	}
	for s := host; s != ""; {
		if bf == nil || bf.TestString(s) {
			if _, ok := set[s]; ok {
				return s, true
			}
		}
		i := strings.IndexByte(s, '.')
		if i < 0 {
			break
		}
		s = s[i+1:]
	}
	return "", false
}

func canonicalList(domains []string) []string {
	set := canonicalSet(domains)
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	return out
}

func canonicalSet(domains []string) map[string]struct{} {
	out := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		c := urlutil.CanonicalDomain(d)
		if c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}
