package classifier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amanahapps/guardian/internal/guard/common/log"
	"github.com/amanahapps/guardian/internal/guard/domain"
)

func snap(gen uint64, strict bool, domains, keywords, whitelist []string) domain.RuleSnapshot {
	return domain.RuleSnapshot{
		Generation: gen,
		Settings:   domain.Settings{StrictMode: strict},
		Rules:      domain.BlockRules{Domains: domains, Keywords: keywords},
		Whitelist:  domain.Whitelist{Domains: whitelist},
	}
}

func newClassifier() *Classifier {
	return New(64, log.NewNoopLogger())
}

func TestClassify_BlockedDomains(t *testing.T) {
	c := newClassifier()
	s := snap(1, false, []string{"games.example", "social.example"}, nil, nil)

	for _, d := range s.Rules.Domains {
		v := c.Classify("https://"+d+"/x", s)
		assert.True(t, v.Blocked, "direct hit on %s", d)
		assert.Equal(t, domain.ReasonDomain, v.Reason)
		assert.Equal(t, d, v.BlockedBy)

		v = c.Classify("https://sub."+d+"/x", s)
		assert.True(t, v.Blocked, "subdomain of %s", d)
		assert.Equal(t, d, v.BlockedBy)
	}

	// no accidental prefix match without the dot separator
	v := c.Classify("https://games.exampleevil.com/", s)
	assert.False(t, v.Blocked)
}

func TestClassify_WWWAndCaseInsensitive(t *testing.T) {
	c := newClassifier()
	s := snap(1, false, []string{"games.example"}, nil, nil)

	assert.True(t, c.Classify("https://WWW.Games.Example/Play", s).Blocked)
	assert.True(t, c.Classify("games.example", s).Blocked, "bare domain input")
}

func TestClassify_Keywords(t *testing.T) {
	c := newClassifier()
	s := snap(1, false, nil, []string{"casino", "bet"}, nil)

	v := c.Classify("https://ok.example/page?ref=CASINO", s)
	assert.True(t, v.Blocked)
	assert.Equal(t, domain.ReasonKeyword, v.Reason)
	assert.Equal(t, "casino", v.BlockedBy)

	assert.False(t, c.Classify("https://ok.example/", s).Blocked)
}

func TestClassify_KeywordRunsInStrictMode(t *testing.T) {
	c := newClassifier()
	s := snap(1, true, nil, []string{"casino"}, []string{"school.example"})

	// whitelisted domain, blocked keyword in the query string
	v := c.Classify("https://school.example/search?q=casino", s)
	assert.True(t, v.Blocked)
	assert.Equal(t, domain.ReasonKeyword, v.Reason, "keyword is a defense-in-depth layer even past the whitelist")
}

func TestClassify_StrictMode(t *testing.T) {
	c := newClassifier()
	strict := snap(1, true, nil, nil, []string{"school.example"})

	v := c.Classify("https://school.example/", strict)
	assert.False(t, v.Blocked, "whitelisted exact")
	assert.False(t, c.Classify("https://www.school.example/", strict).Blocked, "www form")
	assert.False(t, c.Classify("https://mail.school.example/", strict).Blocked, "subdomain")

	v = c.Classify("https://unknown.example/", strict)
	assert.True(t, v.Blocked)
	assert.Equal(t, domain.ReasonWhitelist, v.Reason)
	assert.Equal(t, "unknown.example", v.BlockedBy)
}

func TestClassify_StrictModeNarrowsOnly(t *testing.T) {
	c := newClassifier()

	// same domain, same (empty) blocklist: strict blocks, non-strict allows
	notListed := "https://neutral.example/"
	assert.True(t, c.Classify(notListed, snap(1, true, nil, nil, []string{"school.example"})).Blocked)
	assert.False(t, c.Classify(notListed, snap(2, false, nil, nil, []string{"school.example"})).Blocked)
}

func TestClassify_StrictSupersedesBlocklist(t *testing.T) {
	c := newClassifier()
	// domain is both whitelisted and blocklisted: strict mode is an
	// allow-list, so the blocklist path never runs
	s := snap(1, true, []string{"school.example"}, nil, []string{"school.example"})
	assert.False(t, c.Classify("https://school.example/", s).Blocked)
}

func TestClassify_MalformedURL(t *testing.T) {
	c := newClassifier()

	// fail open in blocklist mode: keyword-only checking
	s := snap(1, false, []string{"games.example"}, []string{"casino"}, nil)
	assert.False(t, c.Classify("javascript:alert(1)", s).Blocked)
	v := c.Classify("javascript:casino()", s)
	assert.True(t, v.Blocked)
	assert.Equal(t, domain.ReasonKeyword, v.Reason)

	// fail closed in strict mode
	strict := snap(2, true, nil, nil, []string{"school.example"})
	v = c.Classify("javascript:alert(1)", strict)
	assert.True(t, v.Blocked)
	assert.Equal(t, domain.ReasonWhitelist, v.Reason)
	assert.Equal(t, "malformed_url", v.BlockedBy)
}

func TestClassify_EmptySnapshotAllowsEverything(t *testing.T) {
	c := newClassifier()
	boot := domain.Bootstrap()
	for _, u := range []string{"https://anything.example/", "http://x.test/path", "bare.example"} {
		assert.False(t, c.Classify(u, boot).Blocked, u)
	}
}

func TestClassify_CacheInvalidatedOnNewGeneration(t *testing.T) {
	c := newClassifier()

	gen1 := snap(1, false, nil, nil, nil)
	assert.False(t, c.Classify("https://games.example/", gen1).Blocked)

	gen2 := snap(2, false, []string{"games.example"}, nil, nil)
	assert.True(t, c.Classify("https://games.example/", gen2).Blocked,
		"stale cached verdict must not survive a snapshot swap")
}

func TestClassify_CachedVerdictStable(t *testing.T) {
	c := newClassifier()
	s := snap(1, false, []string{"games.example"}, nil, nil)

	first := c.Classify("https://games.example/", s)
	second := c.Classify("https://games.example/", s)
	assert.Equal(t, first, second)
}

func TestClassify_ManyDomainsBloomPath(t *testing.T) {
	c := newClassifier()
	var domains []string
	for i := 0; i < 300; i++ {
		domains = append(domains, fmt.Sprintf("blocked%03d.example", i))
	}
	s := snap(1, false, domains, nil, nil)

	assert.True(t, c.Classify("https://blocked123.example/", s).Blocked)
	assert.True(t, c.Classify("https://a.b.blocked042.example/", s).Blocked)
	assert.False(t, c.Classify("https://fine.example/", s).Blocked)
}

func TestClassify_DisabledCache(t *testing.T) {
	c := New(0, log.NewNoopLogger())
	s := snap(1, false, []string{"games.example"}, nil, nil)
	assert.True(t, c.Classify("https://games.example/", s).Blocked)
	assert.True(t, c.Classify("https://games.example/", s).Blocked)
}
