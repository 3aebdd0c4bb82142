package battle

import (
	"time"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
)

// BattleLog 是一次异步PvP对战记录，双方各自领取奖励
type BattleLog struct {
	database.ObjectModel
	SenderID      string `gorm:"type:varchar(10);index;not null"`
	ReceiverID    string `gorm:"type:varchar(10);index;not null"`
	SenderScore   int
	ReceiverScore int
	SenderWin     bool
	SenderClaim   bool
	ReceiverClaim bool
	Expired       bool
	ReceivedAt    *time.Time
}

// Response 是BattleLog的线上表示。receivedAt 缺失时编码为哨兵日期。
type Response struct {
	ObjectID      string        `json:"objectId"`
	Sender        parse.Pointer `json:"sender"`
	Receiver      parse.Pointer `json:"receiver"`
	SenderScore   int           `json:"senderScore"`
	ReceiverScore int           `json:"receiverScore"`
	SenderWin     bool          `json:"senderWin"`
	SenderClaim   bool          `json:"senderClaim"`
	ReceiverClaim bool          `json:"receiverClaim"`
	Expired       bool          `json:"expired"`
	ReceivedAt    parse.Date    `json:"receivedAt"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
}

func NewResponse(b BattleLog) Response {
	return Response{
		ObjectID:      b.ObjectID,
		Sender:        parse.UserPointer(b.SenderID),
		Receiver:      parse.UserPointer(b.ReceiverID),
		SenderScore:   b.SenderScore,
		ReceiverScore: b.ReceiverScore,
		SenderWin:     b.SenderWin,
		SenderClaim:   b.SenderClaim,
		ReceiverClaim: b.ReceiverClaim,
		Expired:       b.Expired,
		ReceivedAt:    parse.EncodeDate(b.ReceivedAt),
		CreatedAt:     parse.FormatTime(b.CreatedAt),
		UpdatedAt:     parse.FormatTime(b.UpdatedAt),
	}
}

func NewResponses(rows []BattleLog) []Response {
	out := make([]Response, 0, len(rows))
	for _, b := range rows {
		out = append(out, NewResponse(b))
	}
	return out
}
