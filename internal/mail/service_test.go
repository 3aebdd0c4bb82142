package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database/dbtest"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecipients struct {
	ids    []string
	broken string
}

func (f fakeRecipients) Exists(_ context.Context, userID string) (bool, error) {
	if userID == f.broken {
		return false, errors.New("boom")
	}
	for _, id := range f.ids {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeRecipients) ListUserIDs(context.Context) ([]string, error) {
	return f.ids, nil
}

func newTestService(t *testing.T, users fakeRecipients) *Service {
	return NewService(dbtest.Open(t, &DropBox{}), users)
}

func TestSendListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, fakeRecipients{ids: []string{"user000001"}})

	sent, err := svc.Send(ctx, "user000001", SendInput{Type: "Gems", Amount: "100"})
	require.NoError(t, err)

	where := map[string]any{"user": map[string]any{"__type": "Pointer", "className": "_User", "objectId": "user000001"}}
	rows, err := svc.Query(ctx, query.Request{Where: where})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	resp := NewResponse(rows[0])
	assert.Equal(t, "Gems", resp.Type)
	assert.Equal(t, "100", resp.Value)
	assert.Equal(t, map[string]any{"en": "Gem Reward", "zh": "宝石奖励"}, resp.Title)
	assert.Equal(t, parse.UserPointer("user000001"), resp.User)

	require.NoError(t, svc.Delete(ctx, sent.ObjectID))
	rows, err = svc.Query(ctx, query.Request{Where: where})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSendValidatesTypeAndRecipient(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, fakeRecipients{ids: []string{"user000001"}})

	_, err := svc.Send(ctx, "user000001", SendInput{Type: "Diamonds", Amount: "1"})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Send(ctx, "nobody0000", SendInput{Type: "Gold", Amount: "1"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCustomTitleIsBilingual(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, fakeRecipients{ids: []string{"user000001"}})

	row, err := svc.Send(ctx, "user000001", SendInput{Type: "Ruby", Amount: "5", Title: "补偿", Msg: "维护补偿"})
	require.NoError(t, err)
	resp := NewResponse(row)
	assert.Equal(t, map[string]any{"en": "补偿", "zh": "补偿"}, resp.Title)
	assert.Equal(t, "维护补偿", resp.Msg)
}

func TestBareStringUserFilterIsIgnored(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, fakeRecipients{ids: []string{"user000001", "user000002"}})
	for _, id := range []string{"user000001", "user000002"} {
		_, err := svc.Send(ctx, id, SendInput{Type: "Gold", Amount: "1"})
		require.NoError(t, err)
	}

	rows, err := svc.Query(ctx, query.Request{Where: map[string]any{"user": "user000001"}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSendToAllContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, fakeRecipients{
		ids:    []string{"user000001", "user000002", "user000003"},
		broken: "user000002",
	})

	sent, total, err := svc.SendToAll(ctx, SendInput{Type: "MoeCrystal", Amount: "10"})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 3, total)

	rows, err := svc.List(ctx, "user000003")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	n, err := svc.Clear(ctx, "user000003")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
