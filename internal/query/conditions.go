package query

import (
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"gorm.io/gorm"
)

// PointerKind 区分指针条件的三种形态
type PointerKind int

const (
	// PointerAny 表示未提供该键（或值无法识别），不施加约束
	PointerAny PointerKind = iota
	// PointerNull 表示显式查询“无关联”
	PointerNull
	// PointerEquals 表示关联到指定objectId
	PointerEquals
)

// PointerCond 是一个针对关联字段的过滤条件
type PointerCond struct {
	Kind PointerKind
	ID   string
}

// DecodePointerCond 从where中解码一个指针条件
func DecodePointerCond(where map[string]any, key string) PointerCond {
	value, present := where[key]
	if !present {
		return PointerCond{}
	}
	if value == nil {
		return PointerCond{Kind: PointerNull}
	}
	if id, ok := parse.DecodePointer(value); ok {
		return PointerCond{Kind: PointerEquals, ID: id}
	}
	return PointerCond{}
}

// Apply 将条件作用于column列
func (p PointerCond) Apply(db *gorm.DB, column string) *gorm.DB {
	switch p.Kind {
	case PointerNull:
		return db.Where(column + " IS NULL")
	case PointerEquals:
		return db.Where(column+" = ?", p.ID)
	}
	return db
}

// BoolCond 是一个可选的布尔等值条件
type BoolCond struct {
	Set   bool
	Value bool
}

// DecodeBoolCond 从where中解码布尔条件，非布尔值被忽略
func DecodeBoolCond(where map[string]any, key string) BoolCond {
	value, present := where[key]
	if !present {
		return BoolCond{}
	}
	b, ok := value.(bool)
	if !ok {
		return BoolCond{}
	}
	return BoolCond{Set: true, Value: b}
}

// Apply 将条件作用于column列
func (b BoolCond) Apply(db *gorm.DB, column string) *gorm.DB {
	if !b.Set {
		return db
	}
	return db.Where(column+" = ?", b.Value)
}

// StringCond 是一个可选的字符串等值条件
type StringCond struct {
	Set   bool
	Value string
}

// DecodeStringCond 从where中解码字符串条件，非字符串值被忽略
func DecodeStringCond(where map[string]any, key string) StringCond {
	s, ok := where[key].(string)
	if !ok {
		return StringCond{}
	}
	return StringCond{Set: true, Value: s}
}

// Apply 将条件作用于column列
func (s StringCond) Apply(db *gorm.DB, column string) *gorm.DB {
	if !s.Set {
		return db
	}
	return db.Where(column+" = ?", s.Value)
}
