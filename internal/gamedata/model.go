package gamedata

import (
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
)

// GameData 保存客户端的存档。Data 是客户端序列化的JSON文本，服务端只读写其中的 golds 键。
type GameData struct {
	database.ObjectModel
	UserID string `gorm:"type:varchar(10);index;not null"`
	Data   string `gorm:"type:text"`
}

func (GameData) TableName() string {
	return "game_data"
}

// Response 是GameData的线上表示
type Response struct {
	ObjectID  string        `json:"objectId"`
	User      parse.Pointer `json:"user"`
	Data      string        `json:"data"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

func NewResponse(g GameData) Response {
	return Response{
		ObjectID:  g.ObjectID,
		User:      parse.UserPointer(g.UserID),
		Data:      g.Data,
		CreatedAt: parse.FormatTime(g.CreatedAt),
		UpdatedAt: parse.FormatTime(g.UpdatedAt),
	}
}

func NewResponses(rows []GameData) []Response {
	out := make([]Response, 0, len(rows))
	for _, g := range rows {
		out = append(out, NewResponse(g))
	}
	return out
}
