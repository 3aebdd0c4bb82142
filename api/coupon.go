package api

import (
	"errors"
	"net/http"

	"github.com/SlpAus/aom-parse-server/internal/coupon"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type redeemForm struct {
	Code       string `form:"coupon_code" binding:"required"`
	RedeemedBy string `form:"redeemed_by" binding:"required"`
}

type couponForm struct {
	Code           string `form:"code" binding:"required"`
	Relics         int    `form:"relics"`
	Gems           int    `form:"gems"`
	UnlockAdFree   bool   `form:"unlock_ad_free"`
	MaxRedemptions int    `form:"max_redemptions,default=1"`
}

var redeemMessages = map[error]string{
	coupon.ErrNotFound:        "Invalid coupon code",
	coupon.ErrInactive:        "Coupon is no longer active",
	coupon.ErrLimitReached:    "Coupon has reached maximum redemptions",
	coupon.ErrAlreadyRedeemed: "You have already redeemed this coupon",
}

func couponError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"message": message}})
}

// RedeemCoupon 兑换优惠码，错误使用 {"error":{"message":...}} 格式
func (h *Handler) RedeemCoupon(c *gin.Context) {
	var form redeemForm
	if err := c.ShouldBind(&form); err != nil {
		couponError(c, http.StatusBadRequest, "coupon_code and redeemed_by are required")
		return
	}

	reward, err := h.svc.Coupons.Redeem(c.Request.Context(), form.Code, form.RedeemedBy)
	if err != nil {
		for target, msg := range redeemMessages {
			if errors.Is(err, target) {
				couponError(c, http.StatusBadRequest, msg)
				return
			}
		}
		zap.L().Error("兑换优惠码失败", zap.String("code", form.Code), zap.Error(err))
		couponError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	zap.L().Info("优惠码兑换成功", zap.String("code", form.Code), zap.String("redeemedBy", form.RedeemedBy))
	c.JSON(http.StatusOK, reward)
}

// CreateCoupon 新建兑换码（管理接口）
func (h *Handler) CreateCoupon(c *gin.Context) {
	var form couponForm
	if err := c.ShouldBind(&form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	row, err := h.svc.Coupons.Create(c.Request.Context(), coupon.CreateInput{
		Code:           form.Code,
		Relics:         form.Relics,
		Gems:           form.Gems,
		UnlockAdFree:   form.UnlockAdFree,
		MaxRedemptions: form.MaxRedemptions,
	})
	if errors.Is(err, coupon.ErrDuplicateCode) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Coupon code already exists"})
		return
	}
	if err != nil {
		zap.L().Error("创建兑换码失败", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, coupon.NewResponse(row))
}

// ListCoupons 列出全部兑换码（管理接口）
func (h *Handler) ListCoupons(c *gin.Context) {
	rows, err := h.svc.Coupons.List(c.Request.Context())
	if err != nil {
		zap.L().Error("查询兑换码失败", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": coupon.NewResponses(rows)})
}

// DeleteCoupon 删除兑换码（管理接口）
func (h *Handler) DeleteCoupon(c *gin.Context) {
	err := h.svc.Coupons.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
		return
	}
	if err != nil {
		zap.L().Error("删除兑换码失败", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
