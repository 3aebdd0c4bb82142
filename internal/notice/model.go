package notice

import (
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
)

// Notice 是一条公告。客户端会下载ImageURL指向的图片，图片地址为空会使客户端卡死。
type Notice struct {
	database.ObjectModel
	ImageURL  string `gorm:"type:varchar(500)"`
	SortOrder int    `gorm:"column:sort_order;index"`
	// Text 是JSON编码的多语言文本
	Text string `gorm:"type:text"`
	URL  string `gorm:"type:varchar(500)"`
}

type Response struct {
	ObjectID  string         `json:"objectId"`
	ImageURL  string         `json:"imageURL"`
	Order     int            `json:"order"`
	Text      map[string]any `json:"text"`
	URL       string         `json:"url"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

func NewResponse(n Notice) Response {
	return Response{
		ObjectID:  n.ObjectID,
		ImageURL:  n.ImageURL,
		Order:     n.SortOrder,
		Text:      parse.DecodeLocalized(n.Text),
		URL:       n.URL,
		CreatedAt: parse.FormatTime(n.CreatedAt),
		UpdatedAt: parse.FormatTime(n.UpdatedAt),
	}
}

func NewResponses(rows []Notice) []Response {
	out := make([]Response, 0, len(rows))
	for _, n := range rows {
		out = append(out, NewResponse(n))
	}
	return out
}
