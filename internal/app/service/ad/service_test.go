package ad

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/admeter/internal/app/service/billingperiod"
	"github.com/fatflowers/admeter/internal/app/service/quota"
	"github.com/fatflowers/admeter/internal/app/service/subscription"
	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/internal/platform/db/dbtest"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	types "github.com/fatflowers/admeter/pkg/types"
)

func newTestService(t *testing.T, plan *types.Plan) (*Service, *gorm.DB, *models.Subscription) {
	t.Helper()
	gdb := dbtest.Open(t)
	cfg := &config.Config{Plans: []*types.Plan{plan}}
	clk := clock.NewFake(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	log := zap.NewNop().Sugar()
	subs := subscription.NewService(cfg, gdb, log, clk)
	periods := billingperiod.NewManager(cfg, gdb, log, clk, subs)
	q := quota.NewService(cfg, gdb, log, clk, subs, periods)

	sub, err := subs.Create(context.Background(), &subscription.CreateSubscriptionRequest{
		OwnerID: "owner-1", OwnerType: types.OwnerTypeOrganization, PackageID: plan.ID,
	})
	require.NoError(t, err)
	return NewService(gdb, log, clk, q), gdb, sub
}

func adsUsed(t *testing.T, db *gorm.DB, subID string) int64 {
	t.Helper()
	var sub models.Subscription
	require.NoError(t, db.Where("id = ?", subID).First(&sub).Error)
	return sub.AdsUsed
}

func TestCreateAd(t *testing.T) {
	svc, db, sub := newTestService(t, &types.Plan{ID: "pro", AdLimit: 3, ImpressionLimit: 10, ActiveAdsLimit: 3})
	ctx := context.Background()

	res, err := svc.CreateAd(ctx, &CreateAdRequest{OwnerID: "owner-1", Title: "spring sale"})
	require.NoError(t, err)
	require.False(t, res.Denied())
	require.Equal(t, types.AdStatusActive, res.Ad.Status)
	require.Equal(t, types.OwnerTypeOrganization, res.Ad.OwnerType)
	require.EqualValues(t, 1, adsUsed(t, db, sub.ID))

	var analytics models.AdAnalytics
	require.NoError(t, db.Where("ad_id = ?", res.Ad.ID).First(&analytics).Error)
	require.Zero(t, analytics.Impressions)
}

func TestCreateAd_DeniedByActiveCap(t *testing.T) {
	svc, db, sub := newTestService(t, &types.Plan{ID: "pro", AdLimit: 3, ImpressionLimit: 10, ActiveAdsLimit: 1})
	ctx := context.Background()

	_, err := svc.CreateAd(ctx, &CreateAdRequest{OwnerID: "owner-1", Title: "one"})
	require.NoError(t, err)

	res, err := svc.CreateAd(ctx, &CreateAdRequest{OwnerID: "owner-1", Title: "two"})
	require.NoError(t, err)
	require.True(t, res.Denied())
	require.Equal(t, types.QuotaDenyReasonActiveAdLimitReached, res.Quota.Reason)
	require.EqualValues(t, 1, adsUsed(t, db, sub.ID))
}

func TestCreateAd_DeniedBySlotLimit(t *testing.T) {
	svc, _, _ := newTestService(t, &types.Plan{ID: "pro", AdLimit: 1, ImpressionLimit: 10, ActiveAdsLimit: 5})
	ctx := context.Background()

	_, err := svc.CreateAd(ctx, &CreateAdRequest{OwnerID: "owner-1", Title: "one"})
	require.NoError(t, err)

	res, err := svc.CreateAd(ctx, &CreateAdRequest{OwnerID: "owner-1", Title: "two"})
	require.NoError(t, err)
	require.True(t, res.Denied())
	require.Equal(t, types.QuotaDenyReasonAdLimitReached, res.Quota.Reason)
	require.EqualValues(t, 1, res.Quota.Limit)
	require.EqualValues(t, 1, res.Quota.Current)
}

func TestCreateAd_InsertFailureReleasesSlot(t *testing.T) {
	svc, db, sub := newTestService(t, &types.Plan{ID: "pro", AdLimit: 3, ImpressionLimit: 10, ActiveAdsLimit: 3})
	require.NoError(t, db.Migrator().DropTable(&models.AdAnalytics{}))

	_, err := svc.CreateAd(context.Background(), &CreateAdRequest{OwnerID: "owner-1", Title: "broken"})
	require.Error(t, err)
	require.Zero(t, adsUsed(t, db, sub.ID))

	var ads int64
	require.NoError(t, db.Model(&models.Ad{}).Count(&ads).Error)
	require.Zero(t, ads)
}

func TestActivateDeactivate(t *testing.T) {
	svc, db, sub := newTestService(t, &types.Plan{ID: "pro", AdLimit: 5, ImpressionLimit: 10, ActiveAdsLimit: 1})
	ctx := context.Background()

	first, err := svc.CreateAd(ctx, &CreateAdRequest{OwnerID: "owner-1", Title: "one"})
	require.NoError(t, err)

	res, err := svc.DeactivateAd(ctx, first.Ad.ID)
	require.NoError(t, err)
	require.Equal(t, types.AdStatusInactive, res.Ad.Status)
	// deactivation keeps the slot
	require.EqualValues(t, 1, adsUsed(t, db, sub.ID))

	second, err := svc.CreateAd(ctx, &CreateAdRequest{OwnerID: "owner-1", Title: "two"})
	require.NoError(t, err)
	require.False(t, second.Denied())

	res, err = svc.ActivateAd(ctx, first.Ad.ID)
	require.NoError(t, err)
	require.True(t, res.Denied())
	require.Equal(t, types.QuotaDenyReasonActiveAdLimitReached, res.Quota.Reason)

	_, err = svc.DeactivateAd(ctx, second.Ad.ID)
	require.NoError(t, err)
	res, err = svc.ActivateAd(ctx, first.Ad.ID)
	require.NoError(t, err)
	require.False(t, res.Denied())
	require.Equal(t, types.AdStatusActive, res.Ad.Status)
}

func TestActivateAd_RejectsExpired(t *testing.T) {
	svc, db, _ := newTestService(t, &types.Plan{ID: "pro", AdLimit: 5, ImpressionLimit: 10, ActiveAdsLimit: 5})
	ctx := context.Background()

	created, err := svc.CreateAd(ctx, &CreateAdRequest{OwnerID: "owner-1", Title: "one"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Ad{}).Where("id = ?", created.Ad.ID).Update("status", types.AdStatusExpired).Error)

	_, err = svc.ActivateAd(ctx, created.Ad.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.GetAd(ctx, "missing")
	require.ErrorIs(t, err, ErrAdNotFound)
}
