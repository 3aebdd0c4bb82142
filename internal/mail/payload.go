package mail

// Filter 只支持按收件人过滤
type Filter struct {
	UserID string
}

// DecodeFilter 从where中解码查询条件。user必须是带objectId的指针对象，裸字符串被忽略。
func DecodeFilter(where map[string]any) Filter {
	ptr, ok := where["user"].(map[string]any)
	if !ok {
		return Filter{}
	}
	id, _ := ptr["objectId"].(string)
	return Filter{UserID: id}
}
