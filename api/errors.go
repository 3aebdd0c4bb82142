package api

import (
	"errors"
	"net/http"

	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/friend"
	"github.com/SlpAus/aom-parse-server/internal/gamedata"
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/summary"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errInternal = parse.NewError(http.StatusInternalServerError, parse.CodeOther, "Internal server error")

// toParseError 将领域错误映射为协议错误，未知错误返回nil
func toParseError(err error) *parse.Error {
	var pe *parse.Error
	if errors.As(err, &pe) {
		return pe
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, account.ErrUserNotFound),
		errors.Is(err, summary.ErrUserNotFound),
		errors.Is(err, gamedata.ErrUserNotFound):
		return parse.ErrObjectNotFound
	case errors.Is(err, account.ErrInvalidSession):
		return parse.ErrInvalidSession
	case errors.Is(err, account.ErrMissingCredentials):
		return parse.NewError(http.StatusBadRequest, parse.CodeObjectNotFound, "Missing username or password")
	case errors.Is(err, account.ErrInvalidCredentials):
		return parse.NewError(http.StatusBadRequest, parse.CodeObjectNotFound, "Invalid username or password")
	case errors.Is(err, account.ErrDuplicateUsername):
		return parse.NewError(http.StatusBadRequest, parse.CodeDuplicateValue, "Username already exists")
	case errors.Is(err, account.ErrAlreadyLinked):
		return parse.NewError(http.StatusBadRequest, parse.CodeDuplicateValue, "Google account already linked to another user")
	case errors.Is(err, friend.ErrTargetNotFound):
		return parse.NewError(http.StatusNotFound, parse.CodeObjectNotFound, "Target user not found")
	case errors.Is(err, friend.ErrSelfRelation):
		return parse.InvalidPointer("Cannot add yourself as a friend")
	case errors.Is(err, gamedata.ErrMalformedSaveData):
		return parse.InvalidPointer("Malformed save data")
	}
	return nil
}

// abortWithError 渲染 {"code":..., "error":...} 并终止请求
func abortWithError(c *gin.Context, err error) {
	pe := toParseError(err)
	if pe == nil {
		zap.L().Error("请求处理失败",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		pe = errInternal
	}
	c.AbortWithStatusJSON(pe.Status, pe)
}
