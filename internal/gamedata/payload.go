package gamedata

import (
	"encoding/json"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
)

// Filter 是GameData支持的查询条件
type Filter struct {
	User query.PointerCond
}

func DecodeFilter(where map[string]any) Filter {
	return Filter{User: query.DecodePointerCond(where, "user")}
}

// CreateInput 是创建请求的内容
type CreateInput struct {
	UserID string
	Data   string
}

// DecodeCreate 解析创建请求体
func DecodeCreate(body map[string]any) (CreateInput, error) {
	userID, ok := parse.DecodePointer(body["user"])
	if !ok {
		return CreateInput{}, parse.InvalidPointer("Invalid user pointer")
	}
	data, _ := dataField(body)
	return CreateInput{UserID: userID, Data: data}, nil
}

// DecodePatch 解析更新请求体，返回nil表示请求中没有data字段
func DecodePatch(body map[string]any) *string {
	data, ok := dataField(body)
	if !ok {
		return nil
	}
	return &data
}

// dataField 读取data字段。客户端通常发送字符串，若发送的是对象则按JSON文本保存。
func dataField(body map[string]any) (string, bool) {
	v, ok := body["data"]
	if !ok {
		return "", false
	}
	if s, ok := parse.String(v); ok {
		return s, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", true
	}
	return string(raw), true
}
