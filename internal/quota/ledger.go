// Package quota meters assistant usage per identity with two independent
// rolling windows. Metering is best-effort: storage failures fail open to a
// fresh record instead of denying service.
package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/devcaliber/assistant/internal/directory"
	"github.com/devcaliber/assistant/internal/kv"
	"go.uber.org/zap"
)

const (
	SessionLimit  = 50
	DailyLimit    = 100
	SessionWindow = 4 * time.Hour
	DailyWindow   = 24 * time.Hour

	// adminRemaining is the sentinel returned for the unlimited admin tier.
	adminRemaining = 999

	keyPrefix = "quota/"
)

// Record is the persisted per-identity usage state.
type Record struct {
	SessionCount  int       `json:"sessionCount"`
	DailyCount    int       `json:"dailyCount"`
	SessionAnchor time.Time `json:"sessionAnchor"`
	DailyAnchor   time.Time `json:"dailyAnchor"`
}

// Result is the outcome of a limit check.
type Result struct {
	Allowed          bool
	RemainingSession int
	RemainingDaily   int
	// ResetTime is set only when the check is denied.
	ResetTime time.Time
}

// Stats are display-only usage labels derived from a limit check.
type Stats struct {
	SessionLabel string
	DailyLabel   string
	SessionUsed  int
	DailyUsed    int
}

// Ledger gates and meters assistant usage. Construct one per process and
// inject it wherever a quota decision is needed.
type Ledger struct {
	mu     sync.Mutex
	store  kv.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewLedger(store kv.Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// CheckLimit evaluates the current quota without consuming any of it. Calling
// it repeatedly leaves the persisted record untouched.
func (l *Ledger) CheckLimit(ctx context.Context, identity string, role directory.Role) Result {
	if role == directory.RoleAdmin {
		return Result{Allowed: true, RemainingSession: adminRemaining, RemainingDaily: adminRemaining}
	}

	now := l.now()
	record := l.load(ctx, identity, now)
	normalize(&record, now)

	sessionRemaining := SessionLimit - record.SessionCount
	dailyRemaining := DailyLimit - record.DailyCount

	if record.SessionCount >= SessionLimit {
		return Result{
			Allowed:          false,
			RemainingSession: 0,
			RemainingDaily:   dailyRemaining,
			ResetTime:        record.SessionAnchor.Add(SessionWindow),
		}
	}

	if record.DailyCount >= DailyLimit {
		return Result{
			Allowed:          false,
			RemainingSession: sessionRemaining,
			RemainingDaily:   0,
			ResetTime:        record.DailyAnchor.Add(DailyWindow),
		}
	}

	return Result{Allowed: true, RemainingSession: sessionRemaining, RemainingDaily: dailyRemaining}
}

// RecordUsage bills one accepted assistant turn against both windows. It must
// be called exactly once per turn that produced text. Admin usage is free.
func (l *Ledger) RecordUsage(ctx context.Context, identity string, role directory.Role) {
	if role == directory.RoleAdmin {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	record := l.load(ctx, identity, now)
	normalize(&record, now)

	record.SessionCount++
	record.DailyCount++

	data, err := json.Marshal(record)
	if err != nil {
		l.logger.Warn("marshaling quota record", zap.String("identity", identity), zap.Error(err))
		return
	}

	if err := l.store.Set(ctx, keyPrefix+identity, data); err != nil {
		l.logger.Warn("persisting quota record", zap.String("identity", identity), zap.Error(err))
	}
}

// UsageStats returns display labels for the identity's current usage.
func (l *Ledger) UsageStats(ctx context.Context, identity string, role directory.Role) Stats {
	if role == directory.RoleAdmin {
		return Stats{SessionLabel: "∞", DailyLabel: "∞"}
	}

	result := l.CheckLimit(ctx, identity, role)
	sessionUsed := SessionLimit - result.RemainingSession
	dailyUsed := DailyLimit - result.RemainingDaily

	return Stats{
		SessionLabel: fmt.Sprintf("%d/%d", sessionUsed, SessionLimit),
		DailyLabel:   fmt.Sprintf("%d/%d", dailyUsed, DailyLimit),
		SessionUsed:  sessionUsed,
		DailyUsed:    dailyUsed,
	}
}

// load returns the stored record for identity, or a fresh one anchored at now
// when the record is missing, unreadable, or the store errors.
func (l *Ledger) load(ctx context.Context, identity string, now time.Time) Record {
	fresh := Record{SessionAnchor: now, DailyAnchor: now}

	data, found, err := l.store.Get(ctx, keyPrefix+identity)
	if err != nil {
		l.logger.Warn("loading quota record, treating as fresh", zap.String("identity", identity), zap.Error(err))
		return fresh
	}
	if !found {
		return fresh
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		l.logger.Warn("decoding quota record, treating as fresh", zap.String("identity", identity), zap.Error(err))
		return fresh
	}

	return record
}

// normalize applies window resets in place. The daily counter resets after 24
// hours; the session counter resets after 4 hours or when the local calendar
// date has changed since the session started.
func normalize(record *Record, now time.Time) {
	if now.Sub(record.DailyAnchor) >= DailyWindow {
		record.DailyCount = 0
		record.DailyAnchor = now
	}

	y1, m1, d1 := record.SessionAnchor.Date()
	y2, m2, d2 := now.Date()
	dateChanged := y1 != y2 || m1 != m2 || d1 != d2

	if now.Sub(record.SessionAnchor) >= SessionWindow || dateChanged {
		record.SessionCount = 0
		record.SessionAnchor = now
	}
}

// TimeUntil renders the span between now and reset as "Xh Ym", "Ym", or "now".
func TimeUntil(reset, now time.Time) string {
	diff := reset.Sub(now)
	if diff <= 0 {
		return "now"
	}

	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
