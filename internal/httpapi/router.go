package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suPer8Hu/tutor-platform/internal/common"
	"github.com/suPer8Hu/tutor-platform/internal/config"
	"github.com/suPer8Hu/tutor-platform/internal/httpapi/handlers"
	"github.com/suPer8Hu/tutor-platform/internal/httpapi/middleware"
	"github.com/suPer8Hu/tutor-platform/internal/logger"
)

func NewRouter(h *handlers.Handler, cfg config.Config, log *logger.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// called by Lessonspace, no api key
	r.POST("/api/space/webhook/transcription/:lesson_id", h.TranscriptionWebhook)

	api := r.Group("/api/space")
	api.Use(middleware.APIKey(cfg.APIKey))
	api.POST("/", h.CreateSpace)
	api.GET("/transcripts/:lesson_id", h.GetTranscript)
	api.GET("/post-lesson/:lesson_id", h.PostLesson)
	api.GET("/lessons/:lesson_id/state", h.LessonState)
	api.POST("/create-lesson-plan", h.CreateLessonPlan)
	api.POST("/create-lesson-sequence", h.CreateLessonSequence)
	return r
}
