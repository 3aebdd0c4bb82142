package summary

import (
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
)

// Filter 是UserSummary支持的查询条件，其余键被忽略
type Filter struct {
	User query.PointerCond
}

// DecodeFilter 从where中解码查询条件
func DecodeFilter(where map[string]any) Filter {
	return Filter{User: query.DecodePointerCond(where, "user")}
}

// CreateInput 是创建请求的内容。货币字段只在首次创建时生效。
type CreateInput struct {
	UserID      string
	DisplayName string
	FriendPoint int
	FriendLimit int
	Ruby        int
	Gem         int
	Moecrystal  int
}

// DecodeCreate 解析创建请求体
func DecodeCreate(body map[string]any) (CreateInput, error) {
	userID, ok := parse.DecodePointer(body["user"])
	if !ok {
		return CreateInput{}, parse.InvalidPointer("Invalid user pointer")
	}
	return CreateInput{
		UserID:      userID,
		DisplayName: parse.StringField(body, "displayName", ""),
		FriendPoint: parse.IntField(body, "friendPoint", 0),
		FriendLimit: parse.IntField(body, "friendLimit", DefaultFriendLimit),
		Ruby:        parse.IntField(body, "ruby", 0),
		Gem:         parse.IntField(body, "gem", 0),
		Moecrystal:  parse.IntField(body, "moecrystal", 0),
	}, nil
}

// Patch 是客户端可修改的字段。ruby、gem、moecrystal 只能由管理工具修改。
type Patch struct {
	DisplayName *string
	FriendPoint *int
	FriendLimit *int
}

// DecodePatch 解析更新请求体，货币字段被静默忽略
func DecodePatch(body map[string]any) Patch {
	var p Patch
	if v, ok := body["displayName"]; ok {
		if s, ok := parse.String(v); ok {
			p.DisplayName = &s
		}
	}
	if v, ok := body["friendPoint"]; ok {
		if i, ok := parse.Int(v); ok {
			p.FriendPoint = &i
		}
	}
	if v, ok := body["friendLimit"]; ok {
		if i, ok := parse.Int(v); ok {
			p.FriendLimit = &i
		}
	}
	return p
}
