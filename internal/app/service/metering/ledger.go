package metering

import (
	"context"
	"fmt"
	"time"

	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/tool"
	types "github.com/fatflowers/admeter/pkg/types"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger admits at most one event per (target, event type, viewer, UTC day).
// Admission is an insert against the unique key; the row is never updated.
type Ledger struct {
	cfg   *config.Config
	db    *gorm.DB
	log   *zap.SugaredLogger
	clock clock.Clock
}

func NewLedger(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, clk clock.Clock) *Ledger {
	return &Ledger{cfg: cfg, db: db, log: log, clock: clk}
}

// ledgerEventType widens engagement to one ledger key per engagement type.
func ledgerEventType(eventType types.EventType, engagementType string) string {
	if eventType == types.EventTypeEngagement {
		return fmt.Sprintf("%s:%s", eventType, engagementType)
	}
	return string(eventType)
}

// Admit inserts the ledger entry. It reports false when another caller
// already holds the key for today.
func (l *Ledger) Admit(ctx context.Context, targetID, eventType, fingerprint string, now time.Time) (*models.EventDedupEntry, bool, error) {
	entry := &models.EventDedupEntry{
		ID:          tool.GenerateUUIDV7(),
		TargetID:    targetID,
		EventType:   eventType,
		Fingerprint: fingerprint,
		DayKey:      tool.DayKey(now),
		CreatedAt:   now,
		ExpiresAt:   now.Add(l.cfg.LedgerTTL()),
	}
	res := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to insert dedup entry: %w", res.Error)
	}
	return entry, res.RowsAffected == 1, nil
}

// Release removes an admitted entry whose event was not applied, so the
// viewer can be counted on a later attempt.
func (l *Ledger) Release(ctx context.Context, entry *models.EventDedupEntry) error {
	if entry == nil {
		return nil
	}
	if err := l.db.WithContext(ctx).Where("id = ?", entry.ID).Delete(&models.EventDedupEntry{}).Error; err != nil {
		return fmt.Errorf("failed to release dedup entry: %w", err)
	}
	return nil
}

// Sweep deletes entries past their expiry and returns how many were removed.
func (l *Ledger) Sweep(ctx context.Context) (int64, error) {
	res := l.db.WithContext(ctx).Where("expires_at <= ?", l.clock.Now()).Delete(&models.EventDedupEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep dedup ledger: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (l *Ledger) sweepInterval() time.Duration {
	if l.cfg != nil && l.cfg.Ledger.SweepIntervalMinutes > 0 {
		return time.Duration(l.cfg.Ledger.SweepIntervalMinutes) * time.Minute
	}
	return time.Hour
}

// registerSweeper runs Sweep on a ticker for the lifetime of the app.
func registerSweeper(lc fx.Lifecycle, l *Ledger) {
	stop := make(chan struct{})
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			interval := l.sweepInterval()
			l.log.Infow("starting dedup ledger sweeper", "interval", interval)
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-stop:
						return
					case <-ticker.C:
						n, err := l.Sweep(context.Background())
						if err != nil {
							l.log.Errorw("dedup ledger sweep failed", "err", err)
							continue
						}
						if n > 0 {
							l.log.Infow("dedup ledger swept", "deleted", n)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			l.log.Infow("stopping dedup ledger sweeper")
			close(stop)
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
