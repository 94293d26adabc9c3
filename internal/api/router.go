package api

import (
	"errors"
	"net/http"
	"time"

	"wetime-service/internal/middleware"
	"wetime-service/internal/service"
	"wetime-service/internal/service/match"
	appErr "wetime-service/pkg/errors"
	"wetime-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "WeTime Bot is running!"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		matchGroup := v1.Group("/match")
		matchGroup.Use(middleware.AuthRequired())
		{
			matchGroup.POST("/request", handler.MatchRequest)
			matchGroup.GET("/status", handler.MatchStatus)
			matchGroup.GET("/history", handler.MatchHistory)
		}
	}
}

type matchRequestBody struct {
	OriginChannel string `json:"originChannel"`
}

func (h *Handler) MatchRequest(c *gin.Context) {
	var body matchRequestBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	participantID, tenantID, ok := getSession(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	res, err := h.services.Coffee.Request(c.Request.Context(), match.Request{
		ParticipantID: participantID,
		TenantID:      tenantID,
		OriginChannel: body.OriginChannel,
	})
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	response.Success(c, res)
}

func (h *Handler) MatchStatus(c *gin.Context) {
	participantID, tenantID, ok := getSession(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	status, err := h.services.Match.Status(c.Request.Context(), tenantID, participantID, time.Now())
	if err != nil {
		h.handleMatchError(c, err)
		return
	}
	response.Success(c, status)
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (h *Handler) MatchHistory(c *gin.Context) {
	if h.services.Pairing == nil {
		response.Error(c, http.StatusNotFound, "pairing history is not enabled")
		return
	}
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	_, tenantID, ok := getSession(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	items, err := h.services.Pairing.ListRecent(c.Request.Context(), tenantID, q.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *Handler) handleMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, appErr.ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrMatchUnavailable):
		response.Unavailable(c, appErr.ErrMatchUnavailable.Error(), 30*time.Second)
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func getSession(c *gin.Context) (participantID, tenantID string, ok bool) {
	participantID = c.GetString(middleware.ContextParticipantIDKey)
	tenantID = c.GetString(middleware.ContextTenantIDKey)
	return participantID, tenantID, participantID != "" && tenantID != ""
}
