package api

import (
	"net/http"

	"github.com/SlpAus/aom-parse-server/internal/battle"
	"github.com/SlpAus/aom-parse-server/internal/friend"
	"github.com/SlpAus/aom-parse-server/internal/gamedata"
	"github.com/SlpAus/aom-parse-server/internal/mail"
	"github.com/SlpAus/aom-parse-server/internal/notice"
	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/summary"
	"github.com/gin-gonic/gin"
)

// --- UserSummary ---

func (h *Handler) QuerySummaries(c *gin.Context) {
	rows, err := h.svc.Summaries.Query(c.Request.Context(), queryRequest(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewResults(summary.NewResponses(rows)))
}

// CreateSummary 是幂等的：用户已有记录时返回已有记录的objectId
func (h *Handler) CreateSummary(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	in, err := summary.DecodeCreate(body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	row, err := h.svc.Summaries.Create(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewCreated(row.ObjectID, row.CreatedAt))
}

func (h *Handler) UpdateSummary(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	updatedAt, err := h.svc.Summaries.Update(c.Request.Context(), c.Param("id"), summary.DecodePatch(body))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewUpdated(updatedAt))
}

// --- GameData ---

func (h *Handler) QueryGameData(c *gin.Context) {
	rows, err := h.svc.Saves.Query(c.Request.Context(), queryRequest(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewResults(gamedata.NewResponses(rows)))
}

func (h *Handler) CreateGameData(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	in, err := gamedata.DecodeCreate(body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	row, err := h.svc.Saves.Create(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewCreated(row.ObjectID, row.CreatedAt))
}

func (h *Handler) UpdateGameData(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	updatedAt, err := h.svc.Saves.Update(c.Request.Context(), c.Param("id"), gamedata.DecodePatch(body))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewUpdated(updatedAt))
}

// --- FriendRelation ---

func (h *Handler) QueryFriendRelations(c *gin.Context) {
	rows, err := h.svc.Friends.Query(c.Request.Context(), queryRequest(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewResults(friend.NewResponses(rows)))
}

func (h *Handler) CreateFriendRelation(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	a, b, err := friend.DecodeCreate(body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	rel, _, err := h.svc.Friends.Create(c.Request.Context(), a, b)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewCreated(rel.ObjectID, rel.CreatedAt))
}

func (h *Handler) DeleteFriendRelation(c *gin.Context) {
	if err := h.svc.Friends.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// --- BattleLog ---

func (h *Handler) QueryBattleLogs(c *gin.Context) {
	rows, err := h.svc.Battles.Query(c.Request.Context(), queryRequest(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewResults(battle.NewResponses(rows)))
}

func (h *Handler) CreateBattleLog(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	in, err := battle.DecodeCreate(body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	row, err := h.svc.Battles.Create(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewCreated(row.ObjectID, row.CreatedAt))
}

func (h *Handler) UpdateBattleLog(c *gin.Context) {
	body, ok := payload(c)
	if !ok {
		return
	}
	updatedAt, err := h.svc.Battles.Update(c.Request.Context(), c.Param("id"), battle.DecodePatch(body))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewUpdated(updatedAt))
}

func (h *Handler) DeleteBattleLog(c *gin.Context) {
	if err := h.svc.Battles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// --- Notice ---

// QueryNotices 忽略where条件，只返回带图片的公告
func (h *Handler) QueryNotices(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		if _, ok := payload(c); !ok {
			return
		}
	}
	rows, err := h.svc.Notices.Query(c.Request.Context(), queryRequest(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewResults(notice.NewResponses(rows)))
}

// --- DropBox ---

func (h *Handler) QueryDropBox(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		if _, ok := payload(c); !ok {
			return
		}
	}
	rows, err := h.svc.Mail.Query(c.Request.Context(), queryRequest(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parse.NewResults(mail.NewResponses(rows)))
}

func (h *Handler) DeleteDropBox(c *gin.Context) {
	if err := h.svc.Mail.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
