package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type lessonPlanReq struct {
	Plan string `json:"plan" binding:"required"`
}

type lessonSequenceReq struct {
	Sequence string `json:"sequence" binding:"required"`
}

func (h *Handler) CreateLessonPlan(c *gin.Context) {
	var req lessonPlanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	out, err := h.Planning.CreateLessonPlan(c.Request.Context(), req.Plan)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateLessonSequence(c *gin.Context) {
	var req lessonSequenceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	out, err := h.Planning.CreateLessonSequence(c.Request.Context(), req.Sequence)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
