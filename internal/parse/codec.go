// Package parse 实现了Parse SDK线上协议中的各种包装编码：
// Pointer、Date、Delete操作标记以及 where 过滤条件。
package parse

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// ClassUser 是Parse内置用户类的类名
	ClassUser = "_User"

	// dateLayout 是客户端要求的毫秒精度UTC时间格式，必须以字面量Z结尾
	dateLayout = "2006-01-02T15:04:05.000Z"

	// ZeroDateISO 是缺失日期的哨兵值。客户端无法反序列化null日期。
	ZeroDateISO = "0001-01-01T00:00:00.000Z"

	typePointer = "Pointer"
	typeDate    = "Date"
	opDelete    = "Delete"
)

// Pointer 是 {"__type":"Pointer","className":...,"objectId":...} 的结构化表示
type Pointer struct {
	Type      string `json:"__type"`
	ClassName string `json:"className"`
	ObjectID  string `json:"objectId"`
}

// Date 是 {"__type":"Date","iso":...} 的结构化表示
type Date struct {
	Type string `json:"__type"`
	ISO  string `json:"iso"`
}

// EncodePointer 构造一个指向 className/objectID 的Pointer
func EncodePointer(className, objectID string) Pointer {
	return Pointer{Type: typePointer, ClassName: className, ObjectID: objectID}
}

// UserPointer 是 EncodePointer(ClassUser, id) 的简写
func UserPointer(objectID string) Pointer {
	return EncodePointer(ClassUser, objectID)
}

// DecodePointer 从Pointer结构或裸字符串中取出objectId。
// 部分调用方直接发送裸id，因此两种编码都必须接受。
func DecodePointer(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case map[string]any:
		if t, _ := v["__type"].(string); t != typePointer {
			return "", false
		}
		id, _ := v["objectId"].(string)
		if id == "" {
			return "", false
		}
		return id, true
	}
	return "", false
}

// FormatTime 将时间格式化为毫秒精度的UTC ISO-8601字符串。零值返回哨兵值。
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ZeroDateISO
	}
	return t.UTC().Format(dateLayout)
}

// EncodeDate 构造一个Date包装对象，nil时间编码为哨兵值而不是null
func EncodeDate(t *time.Time) Date {
	if t == nil {
		return Date{Type: typeDate, ISO: ZeroDateISO}
	}
	return Date{Type: typeDate, ISO: FormatTime(*t)}
}

// isoLayouts 是解析客户端日期时依次尝试的格式，无时区的格式按UTC处理
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DecodeDate 解析Date结构的iso字段。任何其他输入（包括格式错误的字符串）
// 都返回 false 而不是错误，调用方应视为“未提供”。
func DecodeDate(value any) (time.Time, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return time.Time{}, false
	}
	if t, _ := m["__type"].(string); t != typeDate {
		return time.Time{}, false
	}
	iso, _ := m["iso"].(string)
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// IsDeleteOp 判断一个值是否为 {"__op":"Delete"} 删除操作标记
func IsDeleteOp(value any) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	op, _ := m["__op"].(string)
	return op == opDelete
}

// ParseFilter 尽力解析 where 参数。非法JSON或非对象JSON都得到空过滤条件。
func ParseFilter(raw string) map[string]any {
	filter := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return filter
	}
	if err := json.Unmarshal([]byte(raw), &filter); err != nil || filter == nil {
		return map[string]any{}
	}
	return filter
}

// DecodeLocalized 解析以JSON字符串存储的多语言文本。
// 空值得到空对象；格式错误时回退为 {"en": 原始字符串}。
func DecodeLocalized(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var text map[string]any
	if err := json.Unmarshal([]byte(raw), &text); err != nil {
		return map[string]any{"en": raw}
	}
	if text == nil {
		return map[string]any{}
	}
	return text
}

// EncodeLocalized 将多语言文本编码为存储用的JSON字符串
func EncodeLocalized(text map[string]string) string {
	if len(text) == 0 {
		return ""
	}
	b, err := json.Marshal(text)
	if err != nil {
		return ""
	}
	return string(b)
}
