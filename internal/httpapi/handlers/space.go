package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/tutor-platform/internal/space"
	"github.com/suPer8Hu/tutor-platform/internal/transcription"
)

func (h *Handler) CreateSpace(c *gin.Context) {
	var req space.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	resp, err := h.Spaces.Provision(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) TranscriptionWebhook(c *gin.Context) {
	var payload transcription.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		invalidBody(c, err)
		return
	}
	if err := h.Transcription.HandleWebhook(c.Request.Context(), payload, c.Param("lesson_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) GetTranscript(c *gin.Context) {
	t, err := h.Transcription.GetTranscript(c.Request.Context(), c.Param("lesson_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) PostLesson(c *gin.Context) {
	out, err := h.Transcription.GetLessonSummary(c.Request.Context(), c.Param("lesson_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) LessonState(c *gin.Context) {
	lessonID := c.Param("lesson_id")
	st, err := h.Transcription.LessonState(c.Request.Context(), lessonID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lesson_id": lessonID, "state": st})
}
