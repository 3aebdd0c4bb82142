package friend

import (
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
)

// FriendRelation 是两个用户之间的无向好友边。
// PairKey 由排序后的两个id拼接而成，保证同一对用户只有一条记录。
type FriendRelation struct {
	database.ObjectModel
	User1ID string `gorm:"column:user1_id;type:varchar(10);index;not null"`
	User2ID string `gorm:"column:user2_id;type:varchar(10);index;not null"`
	PairKey string `gorm:"type:varchar(21);uniqueIndex;not null"`
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// Other 返回关系中的另一方
func (r FriendRelation) Other(userID string) string {
	if r.User1ID == userID {
		return r.User2ID
	}
	return r.User1ID
}

// Response 是FriendRelation的线上表示
type Response struct {
	ObjectID  string          `json:"objectId"`
	Users     []parse.Pointer `json:"users"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

func NewResponse(r FriendRelation) Response {
	return Response{
		ObjectID:  r.ObjectID,
		Users:     []parse.Pointer{parse.UserPointer(r.User1ID), parse.UserPointer(r.User2ID)},
		CreatedAt: parse.FormatTime(r.CreatedAt),
		UpdatedAt: parse.FormatTime(r.UpdatedAt),
	}
}

func NewResponses(rows []FriendRelation) []Response {
	out := make([]Response, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewResponse(r))
	}
	return out
}
