// Package query 提供各实体类共用的查询翻译工具：
// 指针条件、布尔条件、排序字段白名单以及分页。
package query

import (
	"strings"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLimit 是未指定limit时的默认返回条数
const DefaultLimit = 100

// Request 是一次类查询的输入：已解码的where条件、排序和分页
type Request struct {
	Where map[string]any
	Order string
	Limit int
	Skip  int
}

// NewRequest 从原始参数构造查询请求。where为原始JSON字符串，非法时视为空条件。
func NewRequest(where, order string, limit, skip int) Request {
	return Request{
		Where: parse.ParseFilter(where),
		Order: order,
		Limit: limit,
		Skip:  skip,
	}
}

// Columns 将线上字段名映射到数据库列名，仅白名单中的字段可用于排序
type Columns map[string]string

// Ordering 描述一个类的排序规则
type Ordering struct {
	Columns Columns
	// Fallback 是未知排序字段回退到的列
	Fallback string
	// Implicit 是未请求排序时使用的列，为空表示不排序
	Implicit string
}

// Apply 在db上应用排序、skip和limit。
// 排序字段以 - 开头表示降序，多个字段以逗号分隔。
func (r Request) Apply(db *gorm.DB, o Ordering) *gorm.DB {
	var orders []clause.OrderByColumn
	for _, field := range strings.Split(r.Order, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		column, ok := o.Columns[field]
		if !ok {
			column = o.Fallback
		}
		orders = append(orders, clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	}
	if len(orders) == 0 && o.Implicit != "" {
		orders = append(orders, clause.OrderByColumn{Column: clause.Column{Name: o.Implicit}})
	}
	for _, ob := range orders {
		db = db.Order(ob)
	}

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	skip := r.Skip
	if skip < 0 {
		skip = 0
	}
	return db.Offset(skip).Limit(limit)
}
