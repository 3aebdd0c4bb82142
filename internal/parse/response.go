package parse

import "time"

// Created 是创建类请求的部分响应
type Created struct {
	ObjectID  string `json:"objectId"`
	CreatedAt string `json:"createdAt"`
}

// Updated 是更新类请求的部分响应
type Updated struct {
	UpdatedAt string `json:"updatedAt"`
}

// Results 是查询请求的响应信封
type Results[T any] struct {
	Results []T `json:"results"`
}

// NewCreated 构造创建响应
func NewCreated(objectID string, createdAt time.Time) Created {
	return Created{ObjectID: objectID, CreatedAt: FormatTime(createdAt)}
}

// NewUpdated 构造更新响应
func NewUpdated(updatedAt time.Time) Updated {
	return Updated{UpdatedAt: FormatTime(updatedAt)}
}

// NewResults 构造查询响应，空结果编码为 [] 而不是 null
func NewResults[T any](items []T) Results[T] {
	if items == nil {
		items = []T{}
	}
	return Results[T]{Results: items}
}
