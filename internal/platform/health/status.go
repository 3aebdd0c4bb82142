package health

// State 定义了系统健康状态的枚举类型
type State int

const (
	// StateHealthy 表示数据库与缓存均可用
	StateHealthy State = iota
	// StateDegraded 表示缓存不可用，请求仍可直接访问数据库
	StateDegraded
	// StateUnavailable 表示数据库不可用
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	default:
		return "unavailable"
	}
}

// Report 是一次健康检查的结果
type Report struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}
