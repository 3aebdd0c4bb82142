package coupon

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SlpAus/aom-parse-server/internal/platform/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	return NewService(dbtest.Open(t, &Coupon{}, &Redemption{}))
}

func TestRedeemOncePerRedeemer(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.Create(ctx, CreateInput{Code: "WELCOME2024", Relics: 100, Gems: 500, MaxRedemptions: Unlimited})
	require.NoError(t, err)

	reward, err := svc.Redeem(ctx, "WELCOME2024", "alice")
	require.NoError(t, err)
	assert.Equal(t, Reward{Relics: 100, Gems: 500}, reward)

	_, err = svc.Redeem(ctx, "WELCOME2024", "alice")
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)

	reward, err = svc.Redeem(ctx, "WELCOME2024", "bob")
	require.NoError(t, err)
	assert.Equal(t, 500, reward.Gems)
}

func TestRedeemStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.Create(ctx, CreateInput{Code: "LIMITED", Gems: 1, MaxRedemptions: 3})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Redeem(ctx, "LIMITED", fmt.Sprintf("player%d", i))
		require.NoError(t, err)
	}
	_, err = svc.Redeem(ctx, "LIMITED", "player3")
	assert.ErrorIs(t, err, ErrLimitReached)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].CurrentRedemptions)
}

func TestUnlimitedNeverReachesLimit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.Create(ctx, CreateInput{Code: "FOREVER", MaxRedemptions: Unlimited})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := svc.Redeem(ctx, "FOREVER", fmt.Sprintf("player%d", i))
		require.NoError(t, err)
	}
}

func TestRedeemRejectsUnknownAndInactive(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t, &Coupon{}, &Redemption{})
	svc := NewService(db)

	_, err := svc.Redeem(ctx, "NOPE", "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := svc.Create(ctx, CreateInput{Code: "OLD", MaxRedemptions: 1})
	require.NoError(t, err)
	require.NoError(t, db.Model(&Coupon{}).Where("object_id = ?", c.ObjectID).Update("is_active", false).Error)

	_, err = svc.Redeem(ctx, "OLD", "alice")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	c, err := svc.Create(ctx, CreateInput{Code: "DUP", MaxRedemptions: 1})
	require.NoError(t, err)
	assert.True(t, c.IsActive)

	_, err = svc.Create(ctx, CreateInput{Code: "DUP", MaxRedemptions: 1})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	c, err := svc.Create(ctx, CreateInput{Code: "GONE", MaxRedemptions: 1})
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, "GONE", "alice")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ObjectID))
	assert.ErrorIs(t, svc.Delete(ctx, c.ObjectID), gorm.ErrRecordNotFound)
}

func TestConcurrentRedeemRespectsLimit(t *testing.T) {
	ctx := context.Background()
	db := dbtest.OpenFile(t, &Coupon{}, &Redemption{})
	svc := NewService(db)
	c, err := svc.Create(ctx, CreateInput{Code: "RUSH", Gems: 10, MaxRedemptions: 3})
	require.NoError(t, err)

	const redeemers = 20
	errs := make([]error, redeemers)
	var g errgroup.Group
	for i := 0; i < redeemers; i++ {
		i := i
		g.Go(func() error {
			_, errs[i] = svc.Redeem(ctx, "RUSH", fmt.Sprintf("user-%d", i))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok, limited := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrLimitReached):
			limited++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, redeemers-3, limited)

	var stored Coupon
	require.NoError(t, db.Where("object_id = ?", c.ObjectID).First(&stored).Error)
	assert.Equal(t, 3, stored.CurrentRedemptions)
	var redemptions int64
	require.NoError(t, db.Model(&Redemption{}).Where("coupon_id = ?", c.ObjectID).Count(&redemptions).Error)
	assert.EqualValues(t, 3, redemptions)
}
