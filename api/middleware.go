package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderApplicationID = "X-Parse-Application-Id"
	HeaderSessionToken  = "X-Parse-Session-Token"
	HeaderMasterKey     = "X-Parse-Master-Key"

	currentUserKey  = "currentUser"
	sessionTokenKey = "sessionToken"

	loggedTokenPrefix = 20
	maxLoggedBody     = 4096

	passwordField = "password"
	redacted      = "***"
)

var errInvalidApplicationID = parse.NewError(http.StatusUnauthorized, parse.CodeObjectNotFound, "Invalid Application ID")

// RequestLogger 记录每个Parse请求的方法、路径、参数、会话令牌前缀和请求体
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var body []byte
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.Body != nil {
				body, _ = io.ReadAll(c.Request.Body)
				c.Request.Body = io.NopCloser(bytes.NewReader(body))
			}
		}

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", redactQuery(q)))
		}
		if token := c.GetHeader(HeaderSessionToken); token != "" {
			if len(token) > loggedTokenPrefix {
				token = token[:loggedTokenPrefix] + "..."
			}
			fields = append(fields, zap.String("session", token))
		}
		if len(body) > 0 {
			if len(body) > maxLoggedBody {
				body = body[:maxLoggedBody]
			}
			fields = append(fields, zap.ByteString("body", redactBody(body)))
		}
		zap.L().Info("Parse请求", fields...)
	}
}

// redactBody 隐去JSON或表单请求体中的密码字段，被截断的JSON无法解析时整体隐去
func redactBody(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var m map[string]any
		if err := json.Unmarshal(trimmed, &m); err != nil {
			if bytes.Contains(trimmed, []byte(passwordField)) {
				return []byte(redacted)
			}
			return body
		}
		if _, ok := m[passwordField]; !ok {
			return body
		}
		m[passwordField] = redacted
		out, err := json.Marshal(m)
		if err != nil {
			return []byte(redacted)
		}
		return out
	}
	return []byte(redactQuery(string(body)))
}

func redactQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil || !values.Has(passwordField) {
		return raw
	}
	values.Set(passwordField, redacted)
	return values.Encode()
}

// ValidateApplicationID 拒绝携带了错误Application ID的请求，未携带该请求头时放行
func ValidateApplicationID(appID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if got := c.GetHeader(HeaderApplicationID); got != "" && got != appID {
			c.AbortWithStatusJSON(errInvalidApplicationID.Status, errInvalidApplicationID)
			return
		}
		c.Next()
	}
}

// LoadSession 解析会话令牌并将当前用户放入Gin上下文中。
// 令牌无效时不会中断请求，由需要登录的接口自行拒绝；查询会话出错时返回500。
func LoadSession(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(HeaderSessionToken)
		if token == "" {
			c.Next()
			return
		}
		user, err := accounts.UserBySessionToken(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(currentUserKey, user)
			c.Set(sessionTokenKey, token)
		case !errors.Is(err, account.ErrInvalidSession):
			// 存储故障不能表现为会话失效，否则客户端会被迫重新登录
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireSession 要求请求携带有效的会话令牌
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); !ok {
			abortWithError(c, parse.ErrInvalidSession)
			return
		}
		c.Next()
	}
}

// RequireMasterKey 保护管理接口。未配置masterKey时管理接口整体关闭。
func RequireMasterKey(masterKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if masterKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin API is disabled"})
			return
		}
		if c.GetHeader(HeaderMasterKey) != masterKey {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (account.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return account.User{}, false
	}
	u, ok := v.(account.User)
	return u, ok
}
