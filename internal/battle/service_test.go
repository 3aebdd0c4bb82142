package battle

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database/dbtest"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func ptr(id string) map[string]any {
	return map[string]any{"__type": "Pointer", "className": "_User", "objectId": id}
}

func newTestService(t *testing.T) *Service {
	return NewService(dbtest.Open(t, &BattleLog{}))
}

func TestDecodeCreate(t *testing.T) {
	_, err := DecodeCreate(map[string]any{"sender": ptr("a")})
	var perr *parse.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, parse.CodeInvalidPointer, perr.Code)

	in, err := DecodeCreate(map[string]any{
		"sender":      ptr("a"),
		"receiver":    "b",
		"senderScore": 1200.0,
		"senderWin":   true,
		"receivedAt":  map[string]any{"__type": "Date", "iso": "garbage"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", in.ReceiverID)
	assert.Equal(t, 1200, in.SenderScore)
	assert.True(t, in.SenderWin)
	assert.Nil(t, in.ReceivedAt)
}

func TestMissingReceivedAtEncodesSentinel(t *testing.T) {
	svc := newTestService(t)
	row, err := svc.Create(context.Background(), CreateInput{SenderID: "a", ReceiverID: "b"})
	require.NoError(t, err)

	raw, err := json.Marshal(NewResponse(row))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, map[string]any{"__type": "Date", "iso": parse.ZeroDateISO}, decoded["receivedAt"])
}

func TestQueryFiltersAreConjunctive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	for _, in := range []CreateInput{
		{SenderID: "a", ReceiverID: "b"},
		{SenderID: "a", ReceiverID: "b", ReceiverClaim: true},
		{SenderID: "a", ReceiverID: "c"},
		{SenderID: "c", ReceiverID: "b", Expired: true},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	rows, err := svc.Query(ctx, query.Request{Where: map[string]any{
		"receiver":      ptr("b"),
		"receiverClaim": false,
		"expired":       false,
		"ignoredKey":    map[string]any{"$in": []any{1.0}},
	}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].SenderID)
	assert.False(t, rows[0].ReceiverClaim)

	rows, err = svc.Query(ctx, query.Request{Where: map[string]any{"sender": ptr("a")}, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = svc.Query(ctx, query.Request{Where: map[string]any{"sender": nil}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateReceivedAt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	row, err := svc.Create(ctx, CreateInput{SenderID: "a", ReceiverID: "b"})
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	_, err = svc.Update(ctx, row.ObjectID, DecodePatch(map[string]any{
		"receiverClaim": true,
		"receivedAt":    "not a date object",
	}))
	require.NoError(t, err)

	rows, err := svc.Query(ctx, query.Request{Where: map[string]any{"objectId": row.ObjectID}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].ReceiverClaim)
	require.NotNil(t, rows[0].ReceivedAt)
	assert.True(t, rows[0].ReceivedAt.After(before))

	explicit := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_, err = svc.Update(ctx, row.ObjectID, DecodePatch(map[string]any{
		"receivedAt": map[string]any{"__type": "Date", "iso": "2024-05-01T12:00:00.000Z"},
	}))
	require.NoError(t, err)
	rows, err = svc.Query(ctx, query.Request{Where: map[string]any{"objectId": row.ObjectID}})
	require.NoError(t, err)
	assert.True(t, rows[0].ReceivedAt.Equal(explicit))

	_, err = svc.Update(ctx, "missing000", Patch{})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	row, err := svc.Create(ctx, CreateInput{SenderID: "a", ReceiverID: "b"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, row.ObjectID))
	assert.ErrorIs(t, svc.Delete(ctx, row.ObjectID), gorm.ErrRecordNotFound)
}

func TestCreateBatchCommitsAll(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	outcomes, err := svc.CreateBatch(ctx, []CreateInput{
		{SenderID: "a", ReceiverID: "b"},
		{SenderID: "a", ReceiverID: "c"},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.NoError(t, o.Err)
		assert.Len(t, o.Log.ObjectID, 10)
	}

	rows, err := svc.Query(ctx, query.Request{Where: map[string]any{"sender": "a"}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLatestSent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, CreateInput{SenderID: "me", ReceiverID: "f1", SenderScore: 1})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Create(ctx, CreateInput{SenderID: "me", ReceiverID: "f1", SenderScore: 2})
	require.NoError(t, err)
	// 对方发来的记录不计入
	_, err = svc.Create(ctx, CreateInput{SenderID: "f2", ReceiverID: "me", SenderScore: 3})
	require.NoError(t, err)

	logs, err := svc.LatestSent(ctx, "me", []string{"f1", "f2"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 2, logs[0].SenderScore)
}
