package coupon

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound        = errors.New("兑换码不存在")
	ErrInactive        = errors.New("兑换码已停用")
	ErrLimitReached    = errors.New("兑换码已达到兑换上限")
	ErrAlreadyRedeemed = errors.New("已经兑换过该兑换码")
	ErrDuplicateCode   = errors.New("兑换码已存在")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Redeem 兑换一次优惠码。
// 计数通过条件UPDATE递增，兑换记录受唯一索引约束，并发兑换不会越过上限，也不会重复兑换。
func (s *Service) Redeem(ctx context.Context, code, redeemedBy string) (Reward, error) {
	var reward Reward
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c Coupon
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !c.IsActive {
			return ErrInactive
		}
		if c.MaxRedemptions != Unlimited && c.CurrentRedemptions >= c.MaxRedemptions {
			return ErrLimitReached
		}

		var n int64
		if err := tx.Model(&Redemption{}).Where("coupon_id = ? AND redeemed_by = ?", c.ObjectID, redeemedBy).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyRedeemed
		}

		res := tx.Model(&Coupon{}).
			Where("object_id = ? AND (max_redemptions = ? OR current_redemptions < max_redemptions)", c.ObjectID, Unlimited).
			Updates(map[string]any{
				"current_redemptions": gorm.Expr("current_redemptions + 1"),
				"updated_at":          tx.NowFunc(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLimitReached
		}

		if err := tx.Create(&Redemption{CouponID: c.ObjectID, RedeemedBy: redeemedBy}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRedeemed
			}
			return err
		}

		reward = Reward{Relics: c.Relics, Gems: c.Gems, UnlockAdFree: c.UnlockAdFree}
		return nil
	})
	if err != nil {
		return Reward{}, err
	}
	return reward, nil
}

// CreateInput 是新建兑换码的参数
type CreateInput struct {
	Code           string
	Relics         int
	Gems           int
	UnlockAdFree   bool
	MaxRedemptions int
}

// Create 新建一个启用状态的兑换码
func (s *Service) Create(ctx context.Context, in CreateInput) (Coupon, error) {
	c := Coupon{
		Code:           in.Code,
		Relics:         in.Relics,
		Gems:           in.Gems,
		UnlockAdFree:   in.UnlockAdFree,
		MaxRedemptions: in.MaxRedemptions,
		IsActive:       true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Coupon{}).Where("code = ?", in.Code).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateCode
		}
		if err := tx.Create(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateCode
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Coupon{}, err
	}
	return c, nil
}

// List 返回全部兑换码
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	var rows []Coupon
	if err := s.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询兑换码失败: %w", err)
	}
	return rows, nil
}

// Delete 删除兑换码及其兑换记录
func (s *Service) Delete(ctx context.Context, objectID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("object_id = ?", objectID).Delete(&Coupon{})
		if res.Error != nil {
			return fmt.Errorf("删除兑换码 %s 失败: %w", objectID, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("coupon_id = ?", objectID).Delete(&Redemption{}).Error
	})
}
