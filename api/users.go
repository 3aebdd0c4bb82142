package api

import (
	"errors"
	"net/http"

	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/gin-gonic/gin"
)

var (
	errCredentialsRequired = parse.NewError(http.StatusBadRequest, parse.CodeUsernameMissing, "Username and password required")
	errUsernameTaken       = parse.NewError(http.StatusBadRequest, parse.CodeDuplicateValue, "Username already taken")
)

func optionalString(body map[string]any, key string) *string {
	s, ok := body[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func signupInput(body map[string]any) account.SignupInput {
	return account.SignupInput{
		Username:     parse.StringField(body, "username", ""),
		Password:     parse.StringField(body, "password", ""),
		Email:        optionalString(body, "email"),
		GoogleUserID: optionalString(body, "googleUserId"),
	}
}

// SignUp 注册新用户，返回完整用户信息和会话令牌
func (h *Handler) SignUp(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	user, token, err := h.svc.Accounts.CreateUser(c.Request.Context(), signupInput(body))
	if errors.Is(err, account.ErrMissingCredentials) {
		abortWithError(c, errCredentialsRequired)
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.NewResponse(user, token))
}

// Me 返回当前会话对应的用户
func (h *Handler) Me(c *gin.Context) {
	user, _ := currentUser(c)
	c.JSON(http.StatusOK, account.NewResponse(user, c.GetString(sessionTokenKey)))
}

// GetUser 按objectId读取用户，需要登录
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.svc.Accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.NewResponse(user, ""))
}

// UpdateUser 只允许用户修改自己的资料
func (h *Handler) UpdateUser(c *gin.Context) {
	me, _ := currentUser(c)
	if me.ObjectID != c.Param("id") {
		abortWithError(c, parse.ErrPermissionDenied)
		return
	}
	h.applyUserPatch(c, me.ObjectID)
}

func (h *Handler) applyUserPatch(c *gin.Context, userID string) {
	body, ok := payload(c)
	if !ok {
		return
	}
	updatedAt, err := h.svc.Accounts.Update(c.Request.Context(), userID, account.DecodeUserPatch(body))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewUpdated(updatedAt))
}

// Login 支持GET查询参数、POST查询参数和POST请求体三种凭据来源
func (h *Handler) Login(c *gin.Context) {
	username, password := c.Query("username"), c.Query("password")
	if c.Request.Method == http.MethodPost && (username == "" || password == "") {
		body, ok := payload(c)
		if !ok {
			return
		}
		username = parse.StringField(body, "username", "")
		password = parse.StringField(body, "password", "")
	}

	user, token, err := h.svc.Accounts.Login(c.Request.Context(), username, password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.NewResponse(user, token))
}

// Logout 删除当前会话，未知令牌也返回成功
func (h *Handler) Logout(c *gin.Context) {
	if token := c.GetHeader(HeaderSessionToken); token != "" {
		if err := h.svc.Accounts.Logout(c.Request.Context(), token); err != nil {
			abortWithError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{})
}

// --- _User 类 ---

func (h *Handler) QueryUsers(c *gin.Context) {
	users, err := h.svc.Accounts.Query(c.Request.Context(), queryRequest(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewResults(account.NewResponses(users)))
}

// CreateUserObject 通过 classes/_User 注册，只返回创建响应和会话令牌
func (h *Handler) CreateUserObject(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	user, token, err := h.svc.Accounts.CreateUser(c.Request.Context(), signupInput(body))
	switch {
	case errors.Is(err, account.ErrMissingCredentials):
		abortWithError(c, errCredentialsRequired)
		return
	case errors.Is(err, account.ErrDuplicateUsername):
		abortWithError(c, errUsernameTaken)
		return
	case err != nil:
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"objectId":     user.ObjectID,
		"createdAt":    parse.FormatTime(user.CreatedAt),
		"sessionToken": token,
	})
}

func (h *Handler) GetUserObject(c *gin.Context) {
	user, err := h.svc.Accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.NewResponse(user, ""))
}

// UpdateUserObject 要求会话用户就是被修改的用户
func (h *Handler) UpdateUserObject(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		abortWithError(c, parse.ErrInvalidSession)
		return
	}
	if me.ObjectID != c.Param("id") {
		abortWithError(c, parse.ErrPermissionDenied)
		return
	}
	h.applyUserPatch(c, me.ObjectID)
}
