package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanahapps/guardian/internal/guard/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newEntry(url string, at time.Time, v domain.BlockVerdict) domain.AuditEntry {
	return domain.AuditEntry{
		ID:          uuid.NewString(),
		URL:         url,
		Timestamp:   at,
		WasBlocked:  v.Blocked,
		BlockReason: v.Reason,
		BlockedBy:   v.BlockedBy,
	}
}

func TestAppendAndList_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	verdict := domain.Block(domain.ReasonDomain, "games.example")
	require.NoError(t, s.Append(ctx, newEntry("https://games.example/play", at, verdict)))

	got, err := s.List(ctx, FilterAll, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// the read-back must reproduce the verdict's reason and match verbatim
	assert.True(t, got[0].WasBlocked)
	assert.Equal(t, domain.ReasonDomain, got[0].BlockReason)
	assert.Equal(t, "games.example", got[0].BlockedBy)
	assert.Equal(t, at, got[0].Timestamp)
}

func TestAppend_RejectsInvalidEntry(t *testing.T) {
	s := newTestStore(t)
	err := s.Append(context.Background(), domain.AuditEntry{URL: "https://x.example"})
	assert.ErrorIs(t, err, domain.ErrAuditWriteFailed)
}

func TestList_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, newEntry("https://ok.example", base, domain.Allowed())))
	require.NoError(t, s.Append(ctx, newEntry("https://bad.example", base.Add(time.Minute), domain.Block(domain.ReasonKeyword, "casino"))))
	require.NoError(t, s.Append(ctx, newEntry("https://later.example", base.Add(2*time.Minute), domain.Allowed())))

	all, err := s.List(ctx, FilterAll, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://later.example", all[0].URL, "newest first")

	blocked, err := s.List(ctx, FilterBlocked, 10)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "https://bad.example", blocked[0].URL)

	allowed, err := s.List(ctx, FilterAllowed, 10)
	require.NoError(t, err)
	assert.Len(t, allowed, 2)

	capped, err := s.List(ctx, FilterAll, 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestGroupByDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day1 := time.Date(2025, 3, 10, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, newEntry("https://a.example", day1, domain.Allowed())))
	require.NoError(t, s.Append(ctx, newEntry("https://b.example", day1, domain.Block(domain.ReasonSchedule, "time_restriction"))))
	require.NoError(t, s.Append(ctx, newEntry("https://c.example", day2, domain.Allowed())))

	days, err := s.GroupByDay(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-03-11", days[0].Day)
	assert.Equal(t, 1, days[0].Total)
	assert.Equal(t, 0, days[0].Blocked)
	assert.Equal(t, "2025-03-10", days[1].Day)
	assert.Equal(t, 2, days[1].Total)
	assert.Equal(t, 1, days[1].Blocked)
}

func TestUpdateTitle_LatestEntryOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	first := newEntry("https://news.example", base, domain.Allowed())
	second := newEntry("https://news.example", base.Add(time.Hour), domain.Allowed())
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	require.NoError(t, s.UpdateTitle(ctx, "https://news.example", "Front Page"))

	got, err := s.List(ctx, FilterAll, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Front Page", got[0].Title)
	assert.Empty(t, got[1].Title)

	// unknown URL is a no-op, not an error
	assert.NoError(t, s.UpdateTitle(ctx, "https://never.example", "x"))
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, newEntry("https://a.example", time.Now(), domain.Allowed())))
	require.NoError(t, s.ClearAll(ctx))

	got, err := s.List(ctx, FilterAll, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
