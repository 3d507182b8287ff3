package engine

import (
	"context"
	"time"

	"github.com/amanahapps/guardian/internal/guard/domain"
)

// RuleCache provides the last successfully refreshed rule snapshot.
// Read must be non-blocking and free of I/O; the engine calls it on the
// navigation-interception path.
type RuleCache interface {
	Read() domain.RuleSnapshot
	Age(now time.Time) time.Duration
}

// PrayerStatus answers whether now falls inside a prayer pause window.
// Implementations must not block (daily times are precomputed and cached).
type PrayerStatus interface {
	PauseStatus(now time.Time, pauseMinutes int) domain.PrayerPauseWindow
}

// URLClassifier evaluates a URL against the snapshot's rule layers.
type URLClassifier interface {
	Classify(rawURL string, snap domain.RuleSnapshot) domain.BlockVerdict
}

// AuditSink accepts fire-and-forget audit records. Record must never
// block; a sink under pressure drops entries rather than delay a verdict.
type AuditSink interface {
	Record(e domain.AuditEntry)
}

// TitleUpdater backfills a page title after the browser reports it.
type TitleUpdater interface {
	UpdateTitle(ctx context.Context, url, title string) error
}

// VerdictObserver is notified of every verdict, so the host UI can select
// the blocked-screen icon and copy by reason.
type VerdictObserver func(url string, v domain.BlockVerdict)
