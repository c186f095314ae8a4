package subscription

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/internal/platform/db/dbtest"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	types "github.com/fatflowers/admeter/pkg/types"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	return newTestServiceOn(t, dbtest.Open(t))
}

func newTestServiceOn(t *testing.T, gdb *gorm.DB) (*Service, *gorm.DB) {
	t.Helper()
	cfg := &config.Config{
		Billing: config.BillingConfig{PeriodDays: 30},
		Plans: []*types.Plan{
			{
				ID: "basic", AdLimit: 3, ImpressionLimit: 500, ActiveAdsLimit: 2, Price: 5,
				ProviderPlanIDs: map[types.PaymentProvider]string{types.PaymentProviderStripe: "price_basic"},
			},
		},
	}
	return NewService(cfg, gdb, zap.NewNop().Sugar(), clock.NewFake(t0)), gdb
}

func TestCreate(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, &CreateSubscriptionRequest{
		OwnerID:                "owner-1",
		OwnerType:              types.OwnerTypeUser,
		PackageID:              "basic",
		Provider:               lo.ToPtr(types.PaymentProviderStripe),
		ProviderSubscriptionID: lo.ToPtr("sub_123"),
	})
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.EqualValues(t, 3, sub.AdLimit)
	require.EqualValues(t, 500, sub.ImpressionLimit)
	require.Equal(t, t0.UnixMilli(), sub.PeriodStart)
	require.Equal(t, t0.Add(30*24*time.Hour).UnixMilli(), sub.PeriodEnd)

	require.Eventually(t, func() bool {
		var n int64
		gdb.Model(&models.SubscriptionLog{}).
			Where("subscription_id = ? AND reason = ?", sub.ID, types.SubscriptionChangeReasonPurchase).
			Count(&n)
		return n == 1
	}, time.Second, 10*time.Millisecond)

	_, err = svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "owner-1", OwnerType: types.OwnerTypeUser, PackageID: "basic"})
	require.ErrorIs(t, err, ErrActiveSubscriptionExists)
}

func TestCreate_InvalidRequests(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateSubscriptionRequest{OwnerType: types.OwnerTypeUser, PackageID: "basic"})
	require.Error(t, err)

	_, err = svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "o", OwnerType: "robot", PackageID: "basic"})
	require.Error(t, err)

	_, err = svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "o", OwnerType: types.OwnerTypeUser, PackageID: "gold"})
	require.ErrorIs(t, err, ErrPlanNotFound)
}

func TestLookups(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateSubscriptionRequest{
		OwnerID:                "owner-2",
		OwnerType:              types.OwnerTypeOrganization,
		PackageID:              "basic",
		ProviderSubscriptionID: lo.ToPtr("I-PAYPAL"),
	})
	require.NoError(t, err)

	byID, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "owner-2", byID.OwnerID)

	byOwner, err := svc.GetByOwner(ctx, "owner-2")
	require.NoError(t, err)
	require.Equal(t, created.ID, byOwner.ID)

	byProvider, err := svc.GetByProviderSubscriptionID(ctx, "I-PAYPAL")
	require.NoError(t, err)
	require.Equal(t, created.ID, byProvider.ID)

	_, err = svc.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
	_, err = svc.GetByOwner(ctx, "nobody")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
	_, err = svc.GetByProviderSubscriptionID(ctx, "missing")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestApplyRenewalAndSetStatus(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "owner-3", OwnerType: types.OwnerTypeUser, PackageID: "basic"})
	require.NoError(t, err)

	cancelled, err := svc.SetStatus(ctx, sub.ID, types.SubscriptionStatusCancelled, types.SubscriptionChangeReasonCancel, map[string]any{"event_id": "evt_1"})
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCancelled, cancelled.Status)

	require.NoError(t, gdb.Model(&models.Subscription{}).Where("id = ?", sub.ID).
		Updates(map[string]any{"ads_used": 2, "impressions_used": 400}).Error)

	renewed, err := svc.ApplyRenewal(ctx, sub.ID, nil)
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusActive, renewed.Status)
	require.Zero(t, renewed.AdsUsed)
	require.Zero(t, renewed.ImpressionsUsed)
	require.Equal(t, sub.PeriodEnd, renewed.PeriodEnd)

	_, err = svc.ApplyRenewal(ctx, "00000000-0000-0000-0000-000000000000", nil)
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestGetByOwner_PrefersActive(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	old, err := svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "owner-4", OwnerType: types.OwnerTypeUser, PackageID: "basic"})
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&models.Subscription{}).Where("id = ?", old.ID).
		Update("status", types.SubscriptionStatusExpired).Error)

	current, err := svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "owner-4", OwnerType: types.OwnerTypeUser, PackageID: "basic"})
	require.NoError(t, err)

	got, err := svc.GetByOwner(ctx, "owner-4")
	require.NoError(t, err)
	require.Equal(t, current.ID, got.ID)
}

func TestCreate_ResolvesProviderPlanID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, &CreateSubscriptionRequest{
		OwnerID:   "owner-5",
		OwnerType: types.OwnerTypeUser,
		PackageID: "price_basic",
		Provider:  lo.ToPtr(types.PaymentProviderStripe),
	})
	require.NoError(t, err)
	require.Equal(t, "basic", sub.PackageID)
	require.EqualValues(t, 3, sub.AdLimit)

	// provider plan ids are only honoured for the matching provider
	_, err = svc.Create(ctx, &CreateSubscriptionRequest{
		OwnerID:   "owner-6",
		OwnerType: types.OwnerTypeUser,
		PackageID: "price_basic",
		Provider:  lo.ToPtr(types.PaymentProviderPayPal),
	})
	require.ErrorIs(t, err, ErrPlanNotFound)

	_, err = svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "owner-6", OwnerType: types.OwnerTypeUser, PackageID: "price_basic"})
	require.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCreate_ConcurrentPurchasesKeepOneActive(t *testing.T) {
	svc, gdb := newTestServiceOn(t, dbtest.OpenFile(t, 8))
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, &CreateSubscriptionRequest{
				OwnerID:                "owner-race",
				OwnerType:              types.OwnerTypeUser,
				PackageID:              "basic",
				ProviderSubscriptionID: lo.ToPtr(fmt.Sprintf("sub_%d", i)),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
				return
			}
			assert.ErrorIs(t, err, ErrActiveSubscriptionExists)
			conflicts++
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Equal(t, workers-1, conflicts)

	var active int64
	require.NoError(t, gdb.Model(&models.Subscription{}).
		Where("owner_id = ? AND status = ?", "owner-race", types.SubscriptionStatusActive).
		Count(&active).Error)
	require.EqualValues(t, 1, active)
}

func TestActiveSubscriptionIndex_RejectsSecondActive(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "owner-7", OwnerType: types.OwnerTypeUser, PackageID: "basic"})
	require.NoError(t, err)

	// a direct insert bypassing the service check still hits the index
	dup := *first
	dup.ID = "00000000-0000-0000-0000-000000000007"
	require.Error(t, gdb.Create(&dup).Error)

	_, err = svc.SetStatus(ctx, first.ID, types.SubscriptionStatusCancelled, types.SubscriptionChangeReasonCancel, nil)
	require.NoError(t, err)
	second, err := svc.Create(ctx, &CreateSubscriptionRequest{OwnerID: "owner-7", OwnerType: types.OwnerTypeUser, PackageID: "basic"})
	require.NoError(t, err)

	// renewing the cancelled subscription would leave two active ones
	_, err = svc.ApplyRenewal(ctx, first.ID, nil)
	require.ErrorIs(t, err, ErrActiveSubscriptionExists)

	got, err := svc.GetByOwner(ctx, "owner-7")
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)
}
