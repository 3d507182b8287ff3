// Package engine combines the prayer, schedule, and URL rule layers into
// one verdict per navigation attempt. The entry point is synchronous and
// non-blocking: the calling WebView blocks page load on the return value,
// so every input is read from precomputed state and all side effects are
// fire-and-forget.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amanahapps/guardian/internal/guard/common/clock"
	"github.com/amanahapps/guardian/internal/guard/common/log"
	"github.com/amanahapps/guardian/internal/guard/domain"
	"github.com/amanahapps/guardian/internal/guard/services/schedule"
)

// Engine is the content access control decision engine.
type Engine struct {
	cache      RuleCache
	classifier URLClassifier
	prayer     PrayerStatus
	audit      AuditSink
	titles     TitleUpdater
	clock      clock.Clock
	logger     log.Logger

	obsMu     sync.RWMutex
	observers []VerdictObserver
}

// Options bundles the engine's collaborators.
type Options struct {
	Cache      RuleCache
	Classifier URLClassifier
	Prayer     PrayerStatus
	Audit      AuditSink
	Titles     TitleUpdater
	Clock      clock.Clock
	Logger     log.Logger
}

// New constructs an Engine from its collaborators.
func New(opts Options) *Engine {
	return &Engine{
		cache:      opts.Cache,
		classifier: opts.Classifier,
		prayer:     opts.Prayer,
		audit:      opts.Audit,
		titles:     opts.Titles,
		clock:      opts.Clock,
		logger:     opts.Logger,
	}
}

// Decide produces the verdict for one navigation attempt against the
// given snapshot and instant. Precedence, first match wins:
//
//  1. prayer pause — a hard, time-boxed interruption that overrides even
//     an otherwise-permitted schedule window
//  2. schedule — the next coarsest gate, uniform across all sites
//  3. URL classification — finest-grained, evaluated last
//
// Decide never panics past this function: any internal failure is treated
// as inconclusive classification and falls through toward allow, except
// the strict-mode paths inside the classifier, which fail closed.
func (e *Engine) Decide(rawURL string, snap domain.RuleSnapshot, now time.Time) (verdict domain.BlockVerdict) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(map[string]any{"panic": r, "url": rawURL}, "decision failure, allowing navigation")
			verdict = domain.Allowed()
		}
	}()

	s := snap.Settings
	if s.AutoPauseDuringPrayer && s.PauseDurationMinutes > 0 {
		if win := e.prayer.PauseStatus(now, s.PauseDurationMinutes); win.Paused {
			return domain.Block(domain.ReasonPrayer, win.Prayer.String())
		}
	}

	if s.ScheduleEnabled && !schedule.IsAllowed(now, snap.Schedule) {
		return domain.Block(domain.ReasonSchedule, "time_restriction")
	}

	return e.classifier.Classify(rawURL, snap)
}

// ShouldAllowNavigation is the synchronous entry point invoked by the
// browser shell's navigation-interception hook. It reads the current
// snapshot, decides, records the attempt, and notifies observers. The
// audit append is asynchronous and never awaited.
func (e *Engine) ShouldAllowNavigation(rawURL string) domain.BlockVerdict {
	now := e.clock.Now()
	snap := e.cache.Read()
	v := e.Decide(rawURL, snap, now)

	e.audit.Record(domain.AuditEntry{
		ID:          uuid.NewString(),
		URL:         rawURL,
		Timestamp:   now,
		WasBlocked:  v.Blocked,
		BlockReason: v.Reason,
		BlockedBy:   v.BlockedBy,
	})
	e.notify(rawURL, v)
	return v
}

// NoteTitle forwards the page title the browser reports after load. The
// write happens off the caller's goroutine; failures are logged only.
func (e *Engine) NoteTitle(rawURL, title string) {
	if e.titles == nil || title == "" {
		return
	}
	go func() {
		if err := e.titles.UpdateTitle(context.Background(), rawURL, title); err != nil {
			e.logger.Warn(map[string]any{"error": err.Error(), "url": rawURL}, "title backfill failed")
		}
	}()
}

// SnapshotAge reports the staleness of the rules behind current verdicts.
func (e *Engine) SnapshotAge() time.Duration {
	return e.cache.Age(e.clock.Now())
}

// OnVerdict registers an observer invoked for every verdict. Observers
// run on the decision path and must be cheap; a panicking observer is
// contained and logged.
func (e *Engine) OnVerdict(fn VerdictObserver) {
	e.obsMu.Lock()
	e.observers = append(e.observers, fn)
	e.obsMu.Unlock()
}

func (e *Engine) notify(rawURL string, v domain.BlockVerdict) {
	e.obsMu.RLock()
	obs := e.observers
	e.obsMu.RUnlock()
	for _, fn := range obs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error(map[string]any{"panic": r}, "verdict observer panicked")
				}
			}()
			fn(rawURL, v)
		}()
	}
}
