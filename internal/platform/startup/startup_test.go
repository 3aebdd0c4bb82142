package startup

import (
	"testing"

	"github.com/SlpAus/aom-parse-server/internal/platform/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeApplicationCreatesAllTables(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, InitializeApplication(db))
	// 重复执行必须是安全的
	require.NoError(t, InitializeApplication(db))

	for _, table := range []string{
		"users", "sessions", "user_summaries", "game_data", "friend_relations",
		"battle_logs", "notices", "drop_boxes", "coupons", "coupon_redemptions",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
