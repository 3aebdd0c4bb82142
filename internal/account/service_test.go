package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/platform/database"
	"github.com/SlpAus/aom-parse-server/internal/platform/database/dbtest"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"github.com/SlpAus/aom-parse-server/internal/summary"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := dbtest.Open(t, &User{}, &Session{}, &summary.UserSummary{})
	return NewService(db, nil, 365*24*time.Hour), db
}

func strPtr(s string) *string { return &s }

func TestCreateUserCreatesSummaryAndSession(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	user, sessionToken, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.Len(t, user.ObjectID, 10)
	assert.True(t, strings.HasPrefix(sessionToken, "r:"))

	var summaries []summary.UserSummary
	require.NoError(t, db.Where("user_id = ?", user.ObjectID).Find(&summaries).Error)
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Zero(t, s.Ruby)
	assert.Zero(t, s.Gem)
	assert.Zero(t, s.Moecrystal)
	assert.Zero(t, s.FriendPoint)
	assert.Equal(t, summary.DefaultFriendLimit, s.FriendLimit)

	me, err := svc.UserBySessionToken(ctx, sessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ObjectID, me.ObjectID)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	_, _, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1", GoogleUserID: strPtr("g-1")})
	require.NoError(t, err)

	_, _, err = svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, _, err = svc.CreateUser(ctx, SignupInput{Username: "bob", Password: "pw", GoogleUserID: strPtr("g-1")})
	assert.ErrorIs(t, err, ErrAlreadyLinked)

	_, _, err = svc.CreateUser(ctx, SignupInput{Username: "", Password: "pw"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	// 失败的注册不能留下半成品
	var users, summaries int64
	require.NoError(t, db.Model(&User{}).Count(&users).Error)
	require.NoError(t, db.Model(&summary.UserSummary{}).Count(&summaries).Error)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 1, summaries)
}

func TestLoginByUsernameOrEmailIsAdditive(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	_, first, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1", Email: strPtr("alice@example.com")})
	require.NoError(t, err)

	_, byName, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, byEmail, err := svc.Login(ctx, "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, byName, byEmail)

	for _, tok := range []string{first, byName, byEmail} {
		_, err := svc.UserBySessionToken(ctx, tok)
		assert.NoError(t, err)
	}
	var sessions int64
	require.NoError(t, db.Model(&Session{}).Count(&sessions).Error)
	assert.EqualValues(t, 3, sessions)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLegacyHashVerifiesAndIsUpgraded(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	sum := sha256.Sum256([]byte("old-pw"))
	legacy := User{Username: "legacy", PasswordHash: hex.EncodeToString(sum[:])}
	require.NoError(t, db.Create(&legacy).Error)

	_, _, err := svc.Login(ctx, "legacy", "old-pw")
	require.NoError(t, err)

	stored, err := svc.Get(ctx, legacy.ObjectID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
	assert.True(t, VerifyPassword(stored.PasswordHash, "old-pw"))
}

func TestExpiredSessionIsDeletedOnAccess(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	_, tok, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(366 * 24 * time.Hour) }
	_, err = svc.UserBySessionToken(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidSession)

	var remaining int64
	require.NoError(t, db.Model(&Session{}).Where("session_token = ?", tok).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestLogoutAndUnknownTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, tok, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	assert.NoError(t, svc.Logout(ctx, "r:unknown"))
	require.NoError(t, svc.Logout(ctx, tok))

	_, err = svc.UserBySessionToken(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = svc.UserBySessionToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestClearUserSessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, tok1, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	_, tok2, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	assert.NoError(t, svc.ClearUserSessions(ctx, "ghost", "whatever"))
	assert.ErrorIs(t, svc.ClearUserSessions(ctx, "alice", "wrong"), ErrInvalidCredentials)

	require.NoError(t, svc.ClearUserSessions(ctx, "alice", "pw1"))
	for _, tok := range []string{tok1, tok2} {
		_, err := svc.UserBySessionToken(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidSession)
	}
}

func TestLinkAndExchangeExternalAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	alice, _, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	bob, _, err := svc.CreateUser(ctx, SignupInput{Username: "bob", Password: "pw2"})
	require.NoError(t, err)

	_, err = svc.ExchangeAuthCode(ctx, "g-alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, svc.LinkExternalAccount(ctx, alice.ObjectID, "g-alice"))
	require.NoError(t, svc.LinkExternalAccount(ctx, alice.ObjectID, "g-alice"))
	assert.ErrorIs(t, svc.LinkExternalAccount(ctx, bob.ObjectID, "g-alice"), ErrAlreadyLinked)

	tok, err := svc.ExchangeAuthCode(ctx, "g-alice")
	require.NoError(t, err)
	me, err := svc.UserBySessionToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, alice.ObjectID, me.ObjectID)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	alice, _, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1", GoogleUserID: strPtr("g-1")})
	require.NoError(t, err)
	_, _, err = svc.CreateUser(ctx, SignupInput{Username: "bob", Password: "pw2"})
	require.NoError(t, err)

	patch := DecodeUserPatch(map[string]any{
		"email":        "a@example.com",
		"googleUserId": map[string]any{"__op": "Delete"},
	})
	_, err = svc.Update(ctx, alice.ObjectID, patch)
	require.NoError(t, err)

	stored, err := svc.Get(ctx, alice.ObjectID)
	require.NoError(t, err)
	assert.Nil(t, stored.GoogleUserID)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "a@example.com", *stored.Email)

	_, err = svc.Update(ctx, alice.ObjectID, DecodeUserPatch(map[string]any{"username": "bob"}))
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = svc.Update(ctx, "missing000", UserPatch{})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = svc.Update(ctx, alice.ObjectID, DecodeUserPatch(map[string]any{"password": "new-pw"}))
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "alice", "new-pw")
	assert.NoError(t, err)
}

func TestQueryUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		_, _, err := svc.CreateUser(ctx, SignupInput{Username: name, Password: "pw"})
		require.NoError(t, err)
	}

	users, err := svc.Query(ctx, query.Request{Where: map[string]any{"username": "bob"}})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	users, err = svc.Query(ctx, query.Request{Order: "-username", Limit: 2})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "carol", users[0].Username)

	ids, err := svc.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestSessionCacheIsPopulatedAndEvicted(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := dbtest.Open(t, &User{}, &Session{}, &summary.UserSummary{})
	svc := NewService(db, NewSessionCache(rdb), time.Hour)

	user, tok, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	_, err = svc.UserBySessionToken(ctx, tok)
	require.NoError(t, err)
	require.True(t, mr.Exists(sessionKey(tok)))
	assert.Equal(t, user.ObjectID, mr.HGet(sessionKey(tok), "userId"))
	assert.LessOrEqual(t, mr.TTL(sessionKey(tok)), time.Hour)

	// 缓存命中时仍然以用户表为准
	me, err := svc.UserBySessionToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	require.NoError(t, svc.Logout(ctx, tok))
	assert.False(t, mr.Exists(sessionKey(tok)))
	_, err = svc.UserBySessionToken(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLogoutDuringCacheOutageRevokesToken(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	t.Cleanup(func() { database.UpdateRedisStatus(true) })

	db := dbtest.Open(t, &User{}, &Session{}, &summary.UserSummary{})
	svc := NewService(db, NewSessionCache(rdb), time.Hour)

	_, tok, err := svc.CreateUser(ctx, SignupInput{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	_, err = svc.UserBySessionToken(ctx, tok)
	require.NoError(t, err)
	require.True(t, mr.Exists(sessionKey(tok)))

	mr.SetError("LOADING blip")
	require.NoError(t, svc.Logout(ctx, tok))
	mr.SetError("")
	require.True(t, mr.Exists(sessionKey(tok)))

	_, err = svc.UserBySessionToken(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// 其他用户的请求让缓存恢复可用后，残留条目被清除
	_, other, err := svc.CreateUser(ctx, SignupInput{Username: "bob", Password: "pw2"})
	require.NoError(t, err)
	_, err = svc.UserBySessionToken(ctx, other)
	require.NoError(t, err)
	assert.True(t, database.IsRedisHealthy())

	_, err = svc.UserBySessionToken(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.False(t, mr.Exists(sessionKey(tok)))
}
