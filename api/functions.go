package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/battle"
	"github.com/SlpAus/aom-parse-server/internal/friend"
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/gin-gonic/gin"
)

// unlinkedAccount 是换取会话失败时嵌在错误消息里的JSON，客户端据此引导注册
type unlinkedAccount struct {
	Code     int    `json:"code"`
	GoogleID string `json:"googleId"`
	Email    string `json:"email"`
}

func requiredString(c *gin.Context, key string) (string, bool) {
	body, ok := payload(c)
	if !ok {
		return "", false
	}
	v := parse.StringField(body, key, "")
	if v == "" {
		abortWithError(c, parse.InvalidPointer("Missing "+key))
		return "", false
	}
	return v, true
}

// ClearSessionToken 校验用户名密码后删除该用户的全部会话
func (h *Handler) ClearSessionToken(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	username := parse.StringField(body, "username", "")
	password := parse.StringField(body, "password", "")
	if username == "" || password == "" {
		abortWithError(c, account.ErrMissingCredentials)
		return
	}
	if err := h.svc.Accounts.ClearUserSessions(c.Request.Context(), username, password); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// GetUserSessionToken 用外部授权码换取会话令牌
func (h *Handler) GetUserSessionToken(c *gin.Context) {
	authCode, ok := requiredString(c, "authCode")
	if !ok {
		return
	}
	token, err := h.svc.Accounts.ExchangeAuthCode(c.Request.Context(), authCode)
	if errors.Is(err, account.ErrUserNotFound) {
		msg, _ := json.Marshal(unlinkedAccount{
			Code:     parse.CodeObjectNotFound,
			GoogleID: authCode,
			Email:    authCode + "@google.com",
		})
		abortWithError(c, parse.NewError(http.StatusBadRequest, parse.CodeObjectNotFound, string(msg)))
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": gin.H{"sessionToken": token}})
}

// LinkGoogleID 将外部账户绑定到当前用户
func (h *Handler) LinkGoogleID(c *gin.Context) {
	authCode, ok := requiredString(c, "authCode")
	if !ok {
		return
	}
	me, _ := currentUser(c)
	if err := h.svc.Accounts.LinkExternalAccount(c.Request.Context(), me.ObjectID, authCode); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// AddFriend 为当前用户添加好友，关系已存在时返回已有关系
func (h *Handler) AddFriend(c *gin.Context) {
	targetID, ok := requiredString(c, "targetUserID")
	if !ok {
		return
	}
	me, _ := currentUser(c)
	rel, err := h.svc.Friends.AddFriend(c.Request.Context(), me.ObjectID, targetID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": friend.NewResponse(rel)})
}

// FindLatestBattleLogPerFriend 返回当前用户发给每个好友的最新一条对战记录
func (h *Handler) FindLatestBattleLogPerFriend(c *gin.Context) {
	me, _ := currentUser(c)
	logs, err := h.svc.Friends.LatestBattleLogPerFriend(c.Request.Context(), me.ObjectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": battle.NewResponses(logs)})
}
