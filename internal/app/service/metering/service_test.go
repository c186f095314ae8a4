package metering

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	adsvc "github.com/fatflowers/admeter/internal/app/service/ad"
	"github.com/fatflowers/admeter/internal/app/service/billingperiod"
	"github.com/fatflowers/admeter/internal/app/service/quota"
	"github.com/fatflowers/admeter/internal/app/service/subscription"
	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/internal/platform/db/dbtest"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	types "github.com/fatflowers/admeter/pkg/types"
)

type fixture struct {
	svc   *Service
	db    *gorm.DB
	clock *clock.Fake
	sub   *models.Subscription
	ad    *models.Ad
}

func newFixture(t *testing.T, impressionLimit int64) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	cfg := &config.Config{Plans: []*types.Plan{
		{ID: "basic", AdLimit: 5, ImpressionLimit: impressionLimit, ActiveAdsLimit: 5, Price: 20},
	}}
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop().Sugar()
	subs := subscription.NewService(cfg, gdb, log, clk)
	periods := billingperiod.NewManager(cfg, gdb, log, clk, subs)
	q := quota.NewService(cfg, gdb, log, clk, subs, periods)
	ads := adsvc.NewService(gdb, log, clk, q)

	ctx := context.Background()
	sub, err := subs.Create(ctx, &subscription.CreateSubscriptionRequest{OwnerID: "owner-1", OwnerType: types.OwnerTypeUser, PackageID: "basic"})
	require.NoError(t, err)
	created, err := ads.CreateAd(ctx, &adsvc.CreateAdRequest{OwnerID: "owner-1", Title: "ad"})
	require.NoError(t, err)
	require.False(t, created.Denied())

	return &fixture{
		svc:   NewService(cfg, gdb, log, clk, NewLedger(cfg, gdb, log, clk), ads, subs, periods, q),
		db:    gdb,
		clock: clk,
		sub:   sub,
		ad:    created.Ad,
	}
}

func (f *fixture) record(t *testing.T, eventType types.EventType, fingerprint string) *RecordEventResult {
	t.Helper()
	res, err := f.svc.RecordEvent(context.Background(), &RecordEventRequest{
		AdID: f.ad.ID, EventType: eventType, EngagementType: "share", Fingerprint: fingerprint,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) analytics(t *testing.T) models.AdAnalytics {
	t.Helper()
	var a models.AdAnalytics
	require.NoError(t, f.db.Where("ad_id = ?", f.ad.ID).First(&a).Error)
	return a
}

func (f *fixture) impressionsUsed(t *testing.T) int64 {
	t.Helper()
	var sub models.Subscription
	require.NoError(t, f.db.Where("id = ?", f.sub.ID).First(&sub).Error)
	return sub.ImpressionsUsed
}

func TestRecordEvent_Validation(t *testing.T) {
	f := newFixture(t, 10)
	tests := []*RecordEventRequest{
		nil,
		{EventType: types.EventTypeClick, Fingerprint: "fp"},
		{AdID: f.ad.ID, EventType: "hover", Fingerprint: "fp"},
		{AdID: f.ad.ID, EventType: types.EventTypeClick},
		{AdID: f.ad.ID, EventType: types.EventTypeEngagement, Fingerprint: "fp"},
	}
	for i, req := range tests {
		_, err := f.svc.RecordEvent(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidEvent, "case %d", i)
	}
}

func TestRecordEvent_DedupPerViewerPerDay(t *testing.T) {
	f := newFixture(t, 10)

	require.Equal(t, types.EventOutcomeTracked, f.record(t, types.EventTypeImpression, "viewer-a").Outcome)
	require.Equal(t, types.EventOutcomeDeduped, f.record(t, types.EventTypeImpression, "viewer-a").Outcome)
	require.Equal(t, types.EventOutcomeTracked, f.record(t, types.EventTypeImpression, "viewer-b").Outcome)

	// next UTC day admits the same viewer again
	f.clock.Advance(24 * time.Hour)
	require.Equal(t, types.EventOutcomeTracked, f.record(t, types.EventTypeImpression, "viewer-a").Outcome)

	a := f.analytics(t)
	require.EqualValues(t, 3, a.Impressions)
	require.EqualValues(t, 3, f.impressionsUsed(t))
	require.InDelta(t, 3*2.0, a.Spend, 1e-9)
}

func TestRecordEvent_ConcurrentDuplicatesAdmitOnce(t *testing.T) {
	f := newFixture(t, 10)

	const n = 12
	var wg sync.WaitGroup
	outcomes := make([]types.EventOutcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.RecordEvent(context.Background(), &RecordEventRequest{
				AdID: f.ad.ID, EventType: types.EventTypeClick, Fingerprint: "same-viewer",
			})
			if assert.NoError(t, err) {
				outcomes[i] = res.Outcome
			}
		}(i)
	}
	wg.Wait()

	var tracked int
	for _, o := range outcomes {
		if o == types.EventOutcomeTracked {
			tracked++
		} else {
			assert.Equal(t, types.EventOutcomeDeduped, o)
		}
	}
	require.Equal(t, 1, tracked)
	require.EqualValues(t, 1, f.analytics(t).Clicks)
}

func TestRecordEvent_ImpressionLimitNotDeduped(t *testing.T) {
	f := newFixture(t, 2)
	require.NoError(t, f.db.Model(&models.Subscription{}).Where("id = ?", f.sub.ID).Update("impressions_used", 1).Error)

	res := f.record(t, types.EventTypeImpression, "viewer-a")
	require.Equal(t, types.EventOutcomeTracked, res.Outcome)
	require.EqualValues(t, 2, res.Current)
	require.EqualValues(t, 2, res.Limit)

	res = f.record(t, types.EventTypeImpression, "viewer-b")
	require.Equal(t, types.EventOutcomeLimitReached, res.Outcome)
	require.EqualValues(t, 2, res.Limit)
	require.EqualValues(t, 2, res.Current)

	// the rejected viewer was not written to the ledger
	var entries int64
	require.NoError(t, f.db.Model(&models.EventDedupEntry{}).Where("fingerprint = ?", "viewer-b").Count(&entries).Error)
	require.Zero(t, entries)

	// interaction signals bypass the impression gate
	require.Equal(t, types.EventOutcomeTracked, f.record(t, types.EventTypeClick, "viewer-b").Outcome)
	require.Equal(t, types.EventOutcomeTracked, f.record(t, types.EventTypeConversion, "viewer-b").Outcome)
	require.EqualValues(t, 1, f.analytics(t).Impressions)
}

func TestRecordEvent_ConcurrentImpressionsStopAtLimit(t *testing.T) {
	f := newFixture(t, 3)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.RecordEvent(context.Background(), &RecordEventRequest{
				AdID: f.ad.ID, EventType: types.EventTypeImpression, Fingerprint: fmt.Sprintf("viewer-%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 3, f.impressionsUsed(t))
	require.EqualValues(t, 3, f.analytics(t).Impressions)
}

func TestRecordEvent_CtrAndEngagement(t *testing.T) {
	f := newFixture(t, 100)

	for _, fp := range []string{"a", "b", "c", "d"} {
		f.record(t, types.EventTypeImpression, fp)
	}
	f.record(t, types.EventTypeClick, "a")
	require.InDelta(t, 25.0, f.analytics(t).Ctr, 1e-9)

	require.Equal(t, types.EventOutcomeTracked, f.record(t, types.EventTypeEngagement, "a").Outcome)
	require.Equal(t, types.EventOutcomeDeduped, f.record(t, types.EventTypeEngagement, "a").Outcome)
	res, err := f.svc.RecordEvent(context.Background(), &RecordEventRequest{
		AdID: f.ad.ID, EventType: types.EventTypeEngagement, EngagementType: "like", Fingerprint: "a",
	})
	require.NoError(t, err)
	require.Equal(t, types.EventOutcomeTracked, res.Outcome)

	require.EqualValues(t, 2, f.analytics(t).Engagement)
	var counters []models.AdEngagementCounter
	require.NoError(t, f.db.Where("ad_id = ?", f.ad.ID).Order("engagement_type").Find(&counters).Error)
	require.Len(t, counters, 2)
	require.Equal(t, "like", counters[0].EngagementType)
	require.EqualValues(t, 1, counters[1].Count)

	var rollup models.AdDailyRollup
	require.NoError(t, f.db.Where("ad_id = ? AND day = ?", f.ad.ID, "2024-03-01").First(&rollup).Error)
	require.EqualValues(t, 4, rollup.Impressions)
	require.EqualValues(t, 1, rollup.Clicks)
	require.EqualValues(t, 2, rollup.Engagement)
	require.InDelta(t, 4*0.2, rollup.Spend, 1e-9)
}

func TestRecordEvent_InactiveAdIgnored(t *testing.T) {
	f := newFixture(t, 10)
	require.NoError(t, f.db.Model(&models.Ad{}).Where("id = ?", f.ad.ID).Update("status", types.AdStatusInactive).Error)

	require.Equal(t, types.EventOutcomeIgnored, f.record(t, types.EventTypeImpression, "a").Outcome)
	require.Equal(t, types.EventOutcomeIgnored, f.record(t, types.EventTypeClick, "a").Outcome)
	require.Zero(t, f.analytics(t).Impressions)
	require.Zero(t, f.impressionsUsed(t))
}

func TestRecordEvent_NoSubscriptionIsLimitReached(t *testing.T) {
	f := newFixture(t, 10)
	require.NoError(t, f.db.Where("id = ?", f.sub.ID).Delete(&models.Subscription{}).Error)

	res := f.record(t, types.EventTypeImpression, "a")
	require.Equal(t, types.EventOutcomeLimitReached, res.Outcome)
	require.Zero(t, res.Limit)
}

func TestRecordEvent_AggregationFailureRollsBack(t *testing.T) {
	f := newFixture(t, 10)
	require.NoError(t, f.db.Migrator().DropTable(&models.AdDailyRollup{}))

	_, err := f.svc.RecordEvent(context.Background(), &RecordEventRequest{
		AdID: f.ad.ID, EventType: types.EventTypeImpression, Fingerprint: "a",
	})
	require.Error(t, err)
	require.Zero(t, f.impressionsUsed(t))

	var entries int64
	require.NoError(t, f.db.Model(&models.EventDedupEntry{}).Count(&entries).Error)
	require.Zero(t, entries)
}

func TestLedger_Sweep(t *testing.T) {
	f := newFixture(t, 10)
	f.record(t, types.EventTypeClick, "a")
	ledger := f.svc.ledger

	n, err := ledger.Sweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	f.clock.Advance(25 * time.Hour)
	n, err = ledger.Sweep(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
