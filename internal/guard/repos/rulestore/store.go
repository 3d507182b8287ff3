package rulestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/amanahapps/guardian/internal/guard/common/urlutil"
	"github.com/amanahapps/guardian/internal/guard/domain"
	"github.com/amanahapps/guardian/internal/guard/repos/rulecache"
)

var (
	bucketSettings = []byte("settings")
	bucketSchedule = []byte("schedule")
	bucketRules    = []byte("rules")
)

var (
	keySettings = []byte("settings")
	keySchedule = []byte("schedule")
	keyDomains  = []byte("domains")
	keyKeywords = []byte("keywords")
	keyAllowed  = []byte("whitelist")
)

// Store is the bbolt-backed persistence for every rule source the engine
// consumes. The read side serves the rule cache; the write side is called
// by the parent-facing configuration surface.
//
// Values are stored as JSON under fixed keys so a future migration can
// evolve them without re-keying.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) a Bolt database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketSettings, bucketSchedule, bucketRules} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Settings returns the persisted settings, or defaults when none were
// ever written.
func (s *Store) Settings(_ context.Context) (domain.Settings, error) {
	out := domain.DefaultSettings()
	err := s.getJSON(bucketSettings, keySettings, &out)
	return out, err
}

// PutSettings replaces the persisted settings wholesale.
func (s *Store) PutSettings(_ context.Context, v domain.Settings) error {
	if v.PauseDurationMinutes < 0 {
		return fmt.Errorf("pause duration must not be negative")
	}
	return s.putJSON(bucketSettings, keySettings, v)
}

// StrictModeEnabled answers the strict-mode flag from the same settings
// record, so the flag has exactly one source of truth.
func (s *Store) StrictModeEnabled(ctx context.Context) (bool, error) {
	v, err := s.Settings(ctx)
	return v.StrictMode, err
}

// SetStrictMode flips the strict-mode flag in place.
func (s *Store) SetStrictMode(ctx context.Context, on bool) error {
	v, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	v.StrictMode = on
	return s.PutSettings(ctx, v)
}

// Schedule returns the persisted schedule config, or a disabled empty
// config when none was ever written.
func (s *Store) Schedule(_ context.Context) (domain.ScheduleConfig, error) {
	var out domain.ScheduleConfig
	err := s.getJSON(bucketSchedule, keySchedule, &out)
	return out, err
}

// PutSchedule validates and replaces the schedule config wholesale.
func (s *Store) PutSchedule(_ context.Context, v domain.ScheduleConfig) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return s.putJSON(bucketSchedule, keySchedule, v)
}

// BlockedDomains returns the canonical blocked-domain list.
func (s *Store) BlockedDomains(_ context.Context) ([]string, error) {
	return s.getList(keyDomains)
}

// BlockedKeywords returns the lowercase blocked-keyword list.
func (s *Store) BlockedKeywords(_ context.Context) ([]string, error) {
	return s.getList(keyKeywords)
}

// WhitelistDomains returns the canonical whitelist used in strict mode.
func (s *Store) WhitelistDomains(_ context.Context) ([]string, error) {
	return s.getList(keyAllowed)
}

// SetBlockedDomains replaces the blocked-domain list. Entries are
// canonicalized and deduplicated.
func (s *Store) SetBlockedDomains(_ context.Context, domains []string) error {
	return s.putList(keyDomains, canonicalDomains(domains))
}

// SetBlockedKeywords replaces the blocked-keyword list, lowercased and
// deduplicated.
func (s *Store) SetBlockedKeywords(_ context.Context, keywords []string) error {
	return s.putList(keyKeywords, canonicalKeywords(keywords))
}

// SetWhitelistDomains replaces the whitelist.
func (s *Store) SetWhitelistDomains(_ context.Context, domains []string) error {
	return s.putList(keyAllowed, canonicalDomains(domains))
}

// AddBlockedDomain inserts one domain into the blocklist. The entry is
// reduced to its registrable domain, so blocking any page of a site blocks
// the whole site; bulk imports via SetBlockedDomains keep subdomain-precise
// entries.
func (s *Store) AddBlockedDomain(_ context.Context, d string) error {
	return s.addDomain(keyDomains, urlutil.ApexDomain(urlutil.CanonicalDomain(d)))
}

// RemoveBlockedDomain removes one domain from the blocklist, applying the
// same registrable-domain reduction as AddBlockedDomain.
func (s *Store) RemoveBlockedDomain(_ context.Context, d string) error {
	return s.removeFrom(keyDomains, urlutil.ApexDomain(urlutil.CanonicalDomain(d)))
}

// AddWhitelistDomain inserts one domain into the whitelist. No registrable-
// domain reduction here: allowing docs.example.com must not open all of
// example.com.
func (s *Store) AddWhitelistDomain(_ context.Context, d string) error {
	return s.addDomain(keyAllowed, urlutil.CanonicalDomain(d))
}

// RemoveWhitelistDomain removes one domain from the whitelist.
func (s *Store) RemoveWhitelistDomain(_ context.Context, d string) error {
	return s.removeFrom(keyAllowed, urlutil.CanonicalDomain(d))
}

// --- internals ---

func (s *Store) getJSON(bucket, key []byte, out any) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, out)
	})
}

func (s *Store) putJSON(bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
}

func (s *Store) getList(key []byte) ([]string, error) {
	var out []string
	err := s.getJSON(bucketRules, key, &out)
	return out, err
}

func (s *Store) putList(key []byte, vals []string) error {
	return s.putJSON(bucketRules, key, vals)
}

// addDomain inserts one domain rule. Since domain matching covers
// subdomains, a new entry an existing rule already covers is a no-op, and
// existing entries the new rule subsumes are dropped.
func (s *Store) addDomain(key []byte, val string) error {
	if val == "" {
		return fmt.Errorf("entry must not be empty")
	}
	list, err := s.getList(key)
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(list)+1)
	for _, v := range list {
		if urlutil.MatchesDomain(val, v) {
			return nil
		}
		if !urlutil.MatchesDomain(v, val) {
			kept = append(kept, v)
		}
	}
	kept = append(kept, val)
	sort.Strings(kept)
	return s.putList(key, kept)
}

func (s *Store) removeFrom(key []byte, val string) error {
	list, err := s.getList(key)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, v := range list {
		if v != val {
			kept = append(kept, v)
		}
	}
	return s.putList(key, kept)
}

func canonicalDomains(in []string) []string {
	return dedupe(in, urlutil.CanonicalDomain)
}

func canonicalKeywords(in []string) []string {
	return dedupe(in, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// Ensure Store satisfies the rule cache's source contract at compile time
var _ rulecache.Source = (*Store)(nil)

func dedupe(in []string, canon func(string) string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		c := canon(v)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
