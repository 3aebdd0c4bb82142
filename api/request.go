package api

import (
	"strconv"
	"strings"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const bodyKey = "parseBody"

var errInvalidJSON = parse.InvalidPointer("Invalid JSON body")

// readBody 读取并缓存JSON请求体，空请求体视为 {}
func readBody(c *gin.Context) (map[string]any, error) {
	if cached, ok := c.Get(bodyKey); ok {
		return cached.(map[string]any), nil
	}
	raw, err := c.GetRawData()
	if err != nil {
		return nil, errInvalidJSON
	}
	body := map[string]any{}
	if strings.TrimSpace(string(raw)) != "" {
		if err := binding.JSON.BindBody(raw, &body); err != nil {
			return nil, errInvalidJSON
		}
		if body == nil {
			body = map[string]any{}
		}
	}
	c.Set(bodyKey, body)
	return body, nil
}

// overrideMethod 返回请求体中 _method 的值（大写）
func overrideMethod(body map[string]any) string {
	m, _ := body["_method"].(string)
	return strings.ToUpper(m)
}

// stripOverride 去掉请求体中的协议字段，避免它们被当作对象字段
func stripOverride(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))
	for k, v := range body {
		switch k {
		case "_method", "_ApplicationId", "_ClientVersion", "_InstallationId", "_SessionToken":
			continue
		}
		out[k] = v
	}
	return out
}

// queryRequest 构造查询参数。以 _method:"GET" 发送的POST从请求体读取参数，其余从URL读取。
func queryRequest(c *gin.Context) query.Request {
	if cached, ok := c.Get(bodyKey); ok {
		body := cached.(map[string]any)
		if overrideMethod(body) == "GET" {
			req := query.Request{
				Where: whereOf(body["where"]),
				Order: parse.StringField(body, "order", ""),
				Limit: parse.IntField(body, "limit", 0),
				Skip:  parse.IntField(body, "skip", 0),
			}
			return req
		}
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	skip, _ := strconv.Atoi(c.Query("skip"))
	return query.NewRequest(c.Query("where"), c.Query("order"), limit, skip)
}

func whereOf(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case string:
		return parse.ParseFilter(v)
	}
	return map[string]any{}
}

// createOrQuery 按请求形态在创建和查询之间分派：URL带where参数，或请求体声明 _method:"GET" 时为查询。
func createOrQuery(create, find gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.GetQuery("where"); ok {
			find(c)
			return
		}
		body, err := readBody(c)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if overrideMethod(body) == "GET" {
			find(c)
			return
		}
		create(c)
	}
}

// methodOverride 将带 _method 的POST改写为对应的PUT或DELETE处理函数
func methodOverride(handlers map[string]gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := readBody(c)
		if err != nil {
			abortWithError(c, err)
			return
		}
		next, ok := handlers[overrideMethod(body)]
		if !ok {
			abortWithError(c, parse.ErrMethodNotAllowed)
			return
		}
		next(c)
	}
}

// payload 读取去掉协议字段后的请求体
func payload(c *gin.Context) (map[string]any, bool) {
	body, err := readBody(c)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return stripOverride(body), true
}
