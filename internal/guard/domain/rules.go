package domain

// BlockRules holds the deny-list rule sources.
//
// Domains are canonical (lowercase, no scheme, no leading "www."); keywords
// are lowercase substrings matched against the whole URL. Both sets are
// unordered: membership and suffix matching only, no priority among entries.
type BlockRules struct {
	Domains  []string
	Keywords []string
}

// Whitelist holds the allow-list domains consulted only in strict mode.
// Same canonical form as BlockRules.Domains.
type Whitelist struct {
	Domains []string
}

// IsEmpty reports whether no domains are whitelisted.
func (w Whitelist) IsEmpty() bool { return len(w.Domains) == 0 }
