package account

import (
	"time"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
)

// User 是Parse的 _User 类
type User struct {
	database.ObjectModel
	Username     string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string  `gorm:"type:varchar(255);not null"`
	Email        *string `gorm:"type:varchar(255);index"`
	GoogleUserID *string `gorm:"type:varchar(255);uniqueIndex"`
}

// Session 是一个登录会话，过期后在首次被访问时删除
type Session struct {
	ID           uint   `gorm:"primarykey"`
	SessionToken string `gorm:"type:varchar(255);uniqueIndex;not null"`
	UserID       string `gorm:"type:varchar(10);index;not null"`
	CreatedAt    time.Time
	ExpiresAt    *time.Time
}

// Response 是用户的线上表示。createdAt/updatedAt 是纯字符串而不是Date对象。
type Response struct {
	ObjectID     string `json:"objectId"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	GoogleUserID string `json:"googleUserId,omitempty"`
	SessionToken string `json:"sessionToken,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// NewResponse 构造用户的线上表示，sessionToken为空时省略
func NewResponse(u User, sessionToken string) Response {
	resp := Response{
		ObjectID:     u.ObjectID,
		Username:     u.Username,
		SessionToken: sessionToken,
		CreatedAt:    parse.FormatTime(u.CreatedAt),
		UpdatedAt:    parse.FormatTime(u.UpdatedAt),
	}
	if u.Email != nil {
		resp.Email = *u.Email
	}
	if u.GoogleUserID != nil {
		resp.GoogleUserID = *u.GoogleUserID
	}
	return resp
}

// NewResponses 批量构造线上表示
func NewResponses(users []User) []Response {
	out := make([]Response, 0, len(users))
	for _, u := range users {
		out = append(out, NewResponse(u, ""))
	}
	return out
}
