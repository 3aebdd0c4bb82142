package battle

import (
	"time"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
)

// Filter 是BattleLog支持的查询条件，各条件之间为AND关系
type Filter struct {
	Sender        query.PointerCond
	Receiver      query.PointerCond
	SenderClaim   query.BoolCond
	ReceiverClaim query.BoolCond
	Expired       query.BoolCond
	ObjectID      query.StringCond
}

func DecodeFilter(where map[string]any) Filter {
	return Filter{
		Sender:        query.DecodePointerCond(where, "sender"),
		Receiver:      query.DecodePointerCond(where, "receiver"),
		SenderClaim:   query.DecodeBoolCond(where, "senderClaim"),
		ReceiverClaim: query.DecodeBoolCond(where, "receiverClaim"),
		Expired:       query.DecodeBoolCond(where, "expired"),
		ObjectID:      query.DecodeStringCond(where, "objectId"),
	}
}

// CreateInput 是创建请求的内容
type CreateInput struct {
	SenderID      string
	ReceiverID    string
	SenderScore   int
	ReceiverScore int
	SenderWin     bool
	SenderClaim   bool
	ReceiverClaim bool
	Expired       bool
	ReceivedAt    *time.Time
}

// DecodeCreate 解析创建请求体。格式错误的receivedAt视为未提供。
func DecodeCreate(body map[string]any) (CreateInput, error) {
	senderID, ok1 := parse.DecodePointer(body["sender"])
	receiverID, ok2 := parse.DecodePointer(body["receiver"])
	if !ok1 || !ok2 {
		return CreateInput{}, parse.InvalidPointer("Invalid sender or receiver pointer")
	}
	in := CreateInput{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		SenderScore:   parse.IntField(body, "senderScore", 0),
		ReceiverScore: parse.IntField(body, "receiverScore", 0),
		SenderWin:     parse.BoolField(body, "senderWin", false),
		SenderClaim:   parse.BoolField(body, "senderClaim", false),
		ReceiverClaim: parse.BoolField(body, "receiverClaim", false),
		Expired:       parse.BoolField(body, "expired", false),
	}
	if t, ok := parse.DecodeDate(body["receivedAt"]); ok {
		in.ReceivedAt = &t
	}
	return in, nil
}

// Patch 是更新请求中出现的字段
type Patch struct {
	SenderScore   *int
	ReceiverScore *int
	SenderWin     *bool
	SenderClaim   *bool
	ReceiverClaim *bool
	Expired       *bool
	// ReceivedAtSet 为true时写入ReceivedAt；ReceivedAt为nil表示使用当前时间
	ReceivedAtSet bool
	ReceivedAt    *time.Time
}

// DecodePatch 解析更新请求体
func DecodePatch(body map[string]any) Patch {
	var p Patch
	p.SenderScore = intPtr(body, "senderScore")
	p.ReceiverScore = intPtr(body, "receiverScore")
	p.SenderWin = boolPtr(body, "senderWin")
	p.SenderClaim = boolPtr(body, "senderClaim")
	p.ReceiverClaim = boolPtr(body, "receiverClaim")
	p.Expired = boolPtr(body, "expired")
	if v, ok := body["receivedAt"]; ok {
		p.ReceivedAtSet = true
		if t, ok := parse.DecodeDate(v); ok {
			p.ReceivedAt = &t
		}
	}
	return p
}

func intPtr(body map[string]any, key string) *int {
	v, ok := body[key]
	if !ok {
		return nil
	}
	i, ok := parse.Int(v)
	if !ok {
		return nil
	}
	return &i
}

func boolPtr(body map[string]any, key string) *bool {
	v, ok := body[key]
	if !ok {
		return nil
	}
	b, ok := parse.Bool(v)
	if !ok {
		return nil
	}
	return &b
}
