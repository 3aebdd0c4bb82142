package coupon

import (
	"time"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
)

// Unlimited 表示兑换次数不设上限
const Unlimited = -1

type Coupon struct {
	database.ObjectModel
	Code               string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Relics             int
	Gems               int
	UnlockAdFree       bool
	MaxRedemptions     int
	CurrentRedemptions int
	IsActive           bool
}

// Redemption 记录一次兑换。同一兑换人对同一兑换码只能出现一次。
type Redemption struct {
	ID         uint   `gorm:"primarykey"`
	CouponID   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_coupon_redeemer"`
	RedeemedBy string `gorm:"type:varchar(255);not null;uniqueIndex:idx_coupon_redeemer"`
	CreatedAt  time.Time
}

func (Redemption) TableName() string {
	return "coupon_redemptions"
}

type Response struct {
	ObjectID           string `json:"objectId"`
	Code               string `json:"code"`
	Relics             int    `json:"relics"`
	Gems               int    `json:"gems"`
	UnlockAdFree       bool   `json:"unlockAdFree"`
	MaxRedemptions     int    `json:"maxRedemptions"`
	CurrentRedemptions int    `json:"currentRedemptions"`
	IsActive           bool   `json:"isActive"`
	CreatedAt          string `json:"createdAt"`
	UpdatedAt          string `json:"updatedAt"`
}

func NewResponse(c Coupon) Response {
	return Response{
		ObjectID:           c.ObjectID,
		Code:               c.Code,
		Relics:             c.Relics,
		Gems:               c.Gems,
		UnlockAdFree:       c.UnlockAdFree,
		MaxRedemptions:     c.MaxRedemptions,
		CurrentRedemptions: c.CurrentRedemptions,
		IsActive:           c.IsActive,
		CreatedAt:          parse.FormatTime(c.CreatedAt),
		UpdatedAt:          parse.FormatTime(c.UpdatedAt),
	}
}

func NewResponses(rows []Coupon) []Response {
	out := make([]Response, 0, len(rows))
	for _, c := range rows {
		out = append(out, NewResponse(c))
	}
	return out
}

// Reward 是兑换成功后发给客户端的奖励
type Reward struct {
	Relics       int  `json:"relics"`
	Gems         int  `json:"gems"`
	UnlockAdFree bool `json:"unlockAdFree"`
}
