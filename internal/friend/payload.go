package friend

import (
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
)

// Filter 是FriendRelation支持的查询条件。users 匹配关系的任意一方。
type Filter struct {
	Member query.PointerCond
}

func DecodeFilter(where map[string]any) Filter {
	return Filter{Member: query.DecodePointerCond(where, "users")}
}

// DecodeCreate 解析创建请求体中的两个用户指针
func DecodeCreate(body map[string]any) (string, string, error) {
	users, ok := body["users"].([]any)
	if !ok || len(users) != 2 {
		return "", "", parse.InvalidPointer("Invalid users array")
	}
	a, ok1 := parse.DecodePointer(users[0])
	b, ok2 := parse.DecodePointer(users[1])
	if !ok1 || !ok2 {
		return "", "", parse.InvalidPointer("Invalid user pointers")
	}
	return a, b, nil
}
