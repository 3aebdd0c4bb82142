package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/SlpAus/aom-parse-server/internal/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryCreateIsIdempotentAndCurrencyProtected(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.signup("alice", "pw1")

	status, body := env.do(call{method: http.MethodPost, path: "/parse/classes/UserSummary", body: map[string]any{
		"user": userPointer(id),
		"ruby": 9999,
	}})
	require.Equal(t, http.StatusOK, status)
	objectID := body["objectId"].(string)

	status, body = env.do(call{method: http.MethodPost, path: "/parse/classes/UserSummary/" + objectID, body: map[string]any{
		"_method":     "PUT",
		"displayName": "Alice",
		"ruby":        9999,
	}})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "updatedAt")

	// 带where参数的POST是查询，请求体被忽略
	status, body = env.do(call{
		method: http.MethodPost,
		path:   "/parse/classes/UserSummary?where=" + whereParam(map[string]any{"user": userPointer(id)}),
		body:   map[string]any{"user": userPointer(id)},
	})
	require.Equal(t, http.StatusOK, status)
	rows := results(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, objectID, rows[0]["objectId"])
	assert.EqualValues(t, 0, rows[0]["ruby"])
	assert.Equal(t, "Alice", rows[0]["displayName"])
}

func TestMethodOverrideRejectsUnknownMethods(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(call{method: http.MethodPost, path: "/parse/classes/GameData/abc", body: map[string]any{"_method": "DELETE"}})
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, 1, errorCode(body))

	status, _ = env.do(call{method: http.MethodPost, path: "/parse/classes/GameData/abc", body: map[string]any{}})
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestInvalidPointerIsRejected(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(call{method: http.MethodPost, path: "/parse/classes/BattleLog", body: map[string]any{"sender": 42}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 105, errorCode(body))
	assert.Equal(t, "Invalid sender or receiver pointer", body["error"])
}

func TestGameDataCreateQueryUpdate(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.signup("alice", "pw1")

	status, body := env.do(call{method: http.MethodPost, path: "/parse/classes/GameData", body: map[string]any{
		"user": userPointer(id),
		"data": `{"golds":10}`,
	}})
	require.Equal(t, http.StatusOK, status)
	objectID := body["objectId"].(string)

	status, _ = env.do(call{method: http.MethodPut, path: "/parse/classes/GameData/" + objectID, body: map[string]any{"data": `{"golds":20}`}})
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(call{method: http.MethodGet, path: "/parse/classes/GameData?where=" + whereParam(map[string]any{"user": userPointer(id)})})
	require.Equal(t, http.StatusOK, status)
	rows := results(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, `{"golds":20}`, rows[0]["data"])

	status, _ = env.do(call{method: http.MethodPut, path: "/parse/classes/GameData/missing000", body: map[string]any{"data": "{}"}})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFriendRelationSymmetricAndDeletable(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.signup("alice", "pw1")
	b, _ := env.signup("bob", "pw2")

	status, first := env.do(call{method: http.MethodPost, path: "/parse/classes/FriendRelation", body: map[string]any{
		"users": []any{userPointer(a), userPointer(b)},
	}})
	require.Equal(t, http.StatusOK, status)
	status, second := env.do(call{method: http.MethodPost, path: "/parse/classes/FriendRelation", body: map[string]any{
		"users": []any{userPointer(b), userPointer(a)},
	}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first["objectId"], second["objectId"])

	for _, id := range []string{a, b} {
		status, body := env.do(call{method: http.MethodGet, path: "/parse/classes/FriendRelation?where=" + whereParam(map[string]any{"users": userPointer(id)})})
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, results(t, body), 1)
	}

	status, body := env.do(call{method: http.MethodPost, path: "/parse/classes/FriendRelation/" + first["objectId"].(string), body: map[string]any{"_method": "DELETE"}})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)

	status, _ = env.do(call{method: http.MethodDelete, path: "/parse/classes/FriendRelation/" + first["objectId"].(string)})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBattleLogDateSentinelAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.signup("alice", "pw1")
	b, _ := env.signup("bob", "pw2")

	status, body := env.do(call{method: http.MethodPost, path: "/parse/classes/BattleLog", body: map[string]any{
		"sender":      userPointer(a),
		"receiver":    b,
		"senderScore": 120,
		"senderWin":   true,
	}})
	require.Equal(t, http.StatusOK, status)
	objectID := body["objectId"].(string)

	status, body = env.do(call{method: http.MethodGet, path: "/parse/classes/BattleLog?where=" + whereParam(map[string]any{"receiver": userPointer(b), "receiverClaim": false})})
	require.Equal(t, http.StatusOK, status)
	rows := results(t, body)
	require.Len(t, rows, 1)
	receivedAt := rows[0]["receivedAt"].(map[string]any)
	assert.Equal(t, "0001-01-01T00:00:00.000Z", receivedAt["iso"])

	status, _ = env.do(call{method: http.MethodPost, path: "/parse/classes/BattleLog/" + objectID, body: map[string]any{
		"_method":       "PUT",
		"receiverClaim": true,
	}})
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(call{method: http.MethodGet, path: "/parse/classes/BattleLog?where=" + whereParam(map[string]any{"receiver": userPointer(b), "receiverClaim": false})})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, results(t, body))

	status, _ = env.do(call{method: http.MethodDelete, path: "/parse/classes/BattleLog/" + objectID})
	assert.Equal(t, http.StatusOK, status)
}

func TestNoticeQueryHidesImagelessNotices(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&notice.Notice{ImageURL: "", SortOrder: 0}).Error)
	require.NoError(t, env.db.Create(&notice.Notice{ImageURL: "https://example.com/n.png", SortOrder: 1, Text: `{"en":"hi"}`}).Error)

	status, body := env.do(call{method: http.MethodPost, path: "/parse/classes/Notice", body: map[string]any{
		"_method": "GET",
		"where":   map[string]any{"imageURL": ""},
	}})
	require.Equal(t, http.StatusOK, status)
	rows := results(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://example.com/n.png", rows[0]["imageURL"])
	assert.Equal(t, map[string]any{"en": "hi"}, rows[0]["text"])
}

func TestDropBoxScenario(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.signup("alice", "pw1")
	_, err := env.svc.Mail.Send(context.Background(), id, mailInput("Gems", "100"))
	require.NoError(t, err)

	where := whereParam(map[string]any{"user": userPointer(id)})
	status, body := env.do(call{method: http.MethodGet, path: "/parse/classes/DropBox?where=" + where})
	require.Equal(t, http.StatusOK, status)
	rows := results(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gems", rows[0]["type"])
	assert.Equal(t, "100", rows[0]["value"])

	status, body = env.do(call{method: http.MethodPost, path: "/parse/classes/DropBox/" + rows[0]["objectId"].(string), body: map[string]any{"_method": "DELETE"}})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)

	status, body = env.do(call{method: http.MethodPost, path: "/parse/classes/DropBox?where=" + where})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, results(t, body))
}
