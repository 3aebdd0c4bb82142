package summary

import (
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
)

// DefaultFriendLimit 是新账户的好友位上限
const DefaultFriendLimit = 5

// UserSummary 是每个用户唯一的货币与社交数据行
type UserSummary struct {
	database.ObjectModel
	UserID      string `gorm:"type:varchar(10);uniqueIndex;not null"`
	DisplayName string `gorm:"type:varchar(255)"`
	FriendPoint int
	FriendLimit int
	Ruby        int
	Gem         int
	Moecrystal  int
}

// Response 是UserSummary的线上表示
type Response struct {
	ObjectID    string        `json:"objectId"`
	User        parse.Pointer `json:"user"`
	DisplayName string        `json:"displayName"`
	FriendPoint int           `json:"friendPoint"`
	FriendLimit int           `json:"friendLimit"`
	Ruby        int           `json:"ruby"`
	Gem         int           `json:"gem"`
	Moecrystal  int           `json:"moecrystal"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

// NewResponse 构造线上表示。好友位为0时按默认值返回，客户端不接受0上限。
func NewResponse(s UserSummary) Response {
	limit := s.FriendLimit
	if limit == 0 {
		limit = DefaultFriendLimit
	}
	return Response{
		ObjectID:    s.ObjectID,
		User:        parse.UserPointer(s.UserID),
		DisplayName: s.DisplayName,
		FriendPoint: s.FriendPoint,
		FriendLimit: limit,
		Ruby:        s.Ruby,
		Gem:         s.Gem,
		Moecrystal:  s.Moecrystal,
		CreatedAt:   parse.FormatTime(s.CreatedAt),
		UpdatedAt:   parse.FormatTime(s.UpdatedAt),
	}
}

// NewResponses 批量构造线上表示
func NewResponses(rows []UserSummary) []Response {
	out := make([]Response, 0, len(rows))
	for _, s := range rows {
		out = append(out, NewResponse(s))
	}
	return out
}
