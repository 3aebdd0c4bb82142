package mail

import (
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
)

// DropBox 是发给某个用户的一封奖励邮件，客户端领取后删除
type DropBox struct {
	database.ObjectModel
	UserID string `gorm:"type:varchar(10);index;not null"`
	Type   string `gorm:"type:varchar(100)"`
	// Title 是JSON编码的多语言标题
	Title string `gorm:"type:text"`
	Value string `gorm:"type:varchar(255)"`
	Msg   string `gorm:"type:varchar(500)"`
}

// TableName 沿用旧库的表名
func (DropBox) TableName() string {
	return "drop_boxes"
}

type Response struct {
	ObjectID  string         `json:"objectId"`
	Type      string         `json:"type"`
	Title     map[string]any `json:"title"`
	Value     string         `json:"value"`
	Msg       string         `json:"msg"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
	User      parse.Pointer  `json:"user"`
}

func NewResponse(d DropBox) Response {
	title := map[string]any{}
	if d.Title != "" {
		title = parse.DecodeLocalized(d.Title)
	}
	return Response{
		ObjectID:  d.ObjectID,
		Type:      d.Type,
		Title:     title,
		Value:     d.Value,
		Msg:       d.Msg,
		CreatedAt: parse.FormatTime(d.CreatedAt),
		UpdatedAt: parse.FormatTime(d.UpdatedAt),
		User:      parse.UserPointer(d.UserID),
	}
}

func NewResponses(rows []DropBox) []Response {
	out := make([]Response, 0, len(rows))
	for _, d := range rows {
		out = append(out, NewResponse(d))
	}
	return out
}
