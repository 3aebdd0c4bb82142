package parse

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Int 将JSON解码得到的数值宽松地转换为int
func Int(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		if f, err := v.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Bool 将JSON值宽松地转换为bool
func Bool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, true
		}
	}
	return false, false
}

// String 将JSON值转换为字符串，null视为空字符串
func String(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// IntField 读取body中的整数字段，缺失或类型不符时返回默认值
func IntField(body map[string]any, key string, def int) int {
	if v, ok := body[key]; ok {
		if i, ok := Int(v); ok {
			return i
		}
	}
	return def
}

// BoolField 读取body中的布尔字段，缺失或类型不符时返回默认值
func BoolField(body map[string]any, key string, def bool) bool {
	if v, ok := body[key]; ok {
		if b, ok := Bool(v); ok {
			return b
		}
	}
	return def
}

// StringField 读取body中的字符串字段，缺失或类型不符时返回默认值
func StringField(body map[string]any, key string, def string) string {
	if v, ok := body[key]; ok {
		if s, ok := String(v); ok {
			return s
		}
	}
	return def
}
