package api

import (
	"net/http"
	"strings"

	"github.com/SlpAus/aom-parse-server/internal/battle"
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/gin-gonic/gin"
)

var errUnsupportedBatchOp = parse.NewError(http.StatusBadRequest, parse.CodeOther, "Unsupported batch operation")

type batchRequest struct {
	Requests []batchItem `json:"requests"`
}

type batchItem struct {
	Method string         `json:"method"`
	Path   string         `json:"path"`
	Body   map[string]any `json:"body"`
}

type batchResult struct {
	Success any          `json:"success,omitempty"`
	Error   *parse.Error `json:"error,omitempty"`
}

// Batch 依次处理子请求，目前只支持创建BattleLog。
// 每个子请求单独给出结果，成功的部分在最后一起提交。
func (h *Handler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errInvalidJSON)
		return
	}

	results := make([]batchResult, len(req.Requests))
	var inputs []battle.CreateInput
	var slots []int
	for i, item := range req.Requests {
		if strings.ToUpper(item.Method) != http.MethodPost || !isBattleLogClassPath(item.Path) {
			results[i] = batchResult{Error: errUnsupportedBatchOp}
			continue
		}
		body := item.Body
		if body == nil {
			body = map[string]any{}
		}
		in, err := battle.DecodeCreate(body)
		if err != nil {
			results[i] = batchResult{Error: toBatchError(err)}
			continue
		}
		inputs = append(inputs, in)
		slots = append(slots, i)
	}

	if len(inputs) > 0 {
		outcomes, err := h.svc.Battles.CreateBatch(c.Request.Context(), inputs)
		if err != nil {
			abortWithError(c, err)
			return
		}
		for j, out := range outcomes {
			i := slots[j]
			if out.Err != nil {
				results[i] = batchResult{Error: toBatchError(out.Err)}
				continue
			}
			results[i] = batchResult{Success: parse.NewCreated(out.Log.ObjectID, out.Log.CreatedAt)}
		}
	}

	c.JSON(http.StatusOK, results)
}

// isBattleLogClassPath 判断子请求是否指向BattleLog类本身，带objectId的路径不算
func isBattleLogClassPath(path string) bool {
	path = strings.TrimSuffix(strings.TrimPrefix(path, "/parse"), "/")
	return path == "/classes/BattleLog"
}

func toBatchError(err error) *parse.Error {
	if pe := toParseError(err); pe != nil {
		return pe
	}
	return parse.NewError(http.StatusBadRequest, parse.CodeOther, err.Error())
}
