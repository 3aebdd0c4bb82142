package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/battle"
	"github.com/SlpAus/aom-parse-server/internal/coupon"
	"github.com/SlpAus/aom-parse-server/internal/friend"
	"github.com/SlpAus/aom-parse-server/internal/gamedata"
	"github.com/SlpAus/aom-parse-server/internal/mail"
	"github.com/SlpAus/aom-parse-server/internal/notice"
	"github.com/SlpAus/aom-parse-server/internal/platform/config"
	"github.com/SlpAus/aom-parse-server/internal/platform/database/dbtest"
	"github.com/SlpAus/aom-parse-server/internal/platform/health"
	"github.com/SlpAus/aom-parse-server/internal/summary"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testAppID     = "game.ignite.aom.prd"
	testMasterKey = "master-secret"
)

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	svc    Services
}

func newTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t,
		&account.User{}, &account.Session{}, &summary.UserSummary{}, &gamedata.GameData{},
		&friend.FriendRelation{}, &battle.BattleLog{}, &notice.Notice{}, &mail.DropBox{},
		&coupon.Coupon{}, &coupon.Redemption{},
	)

	accounts := account.NewService(db, nil, 365*24*time.Hour)
	battles := battle.NewService(db)
	svc := Services{
		Accounts:  accounts,
		Summaries: summary.NewService(db, accounts),
		Saves:     gamedata.NewService(db, accounts),
		Friends:   friend.NewService(db, accounts, battles),
		Battles:   battles,
		Notices:   notice.NewService(db),
		Mail:      mail.NewService(db, accounts),
		Coupons:   coupon.NewService(db),
		Health:    health.NewChecker(db, nil),
	}

	cfg := &config.Config{
		Parse:  config.ParseConfig{ApplicationID: testAppID, MasterKey: testMasterKey, SessionTTL: time.Hour},
		Client: config.ClientConfig{VersionAndroid: "2.5.2", VersionIOS: "2.5.0", ServerVersion: "1.0.0"},
	}
	h, err := NewHandler(cfg, svc)
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, h)
	return &testEnv{t: t, db: db, router: router, svc: svc}
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

func (e *testEnv) do(c call) (int, map[string]any) {
	e.t.Helper()
	rec := e.raw(c)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (e *testEnv) raw(c call) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	contentType := "application/json"
	switch b := c.body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case url.Values:
		reader = bytes.NewReader([]byte(b.Encode()))
		contentType = "application/x-www-form-urlencoded"
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, reader)
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set(HeaderSessionToken, c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signup 注册用户并返回objectId和会话令牌
func (e *testEnv) signup(username, password string) (string, string) {
	e.t.Helper()
	status, body := e.do(call{method: http.MethodPost, path: "/parse/users", body: map[string]any{
		"username": username,
		"password": password,
	}})
	require.Equal(e.t, http.StatusOK, status, body)
	return body["objectId"].(string), body["sessionToken"].(string)
}

func userPointer(id string) map[string]any {
	return map[string]any{"__type": "Pointer", "className": "_User", "objectId": id}
}

func whereParam(where map[string]any) string {
	raw, _ := json.Marshal(where)
	return url.QueryEscape(string(raw))
}

func results(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	items, ok := body["results"].([]any)
	require.True(t, ok, body)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, it.(map[string]any))
	}
	return out
}

func errorCode(body map[string]any) int {
	code, _ := body["code"].(float64)
	return int(code)
}

