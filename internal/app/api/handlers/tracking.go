package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/fatflowers/admeter/internal/app/api/middleware"
	"github.com/fatflowers/admeter/internal/app/service/metering"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/response"
	"github.com/fatflowers/admeter/pkg/types"
)

type TrackEventRequest struct {
	AdID string `json:"ad_id" binding:"required"`
	// EngagementType is required for engagement events, e.g. "video_play".
	EngagementType string `json:"engagement_type"`
}

// @Summary      Track Ad Event
// @Description  Records an impression, click, engagement or conversion. One event per viewer, ad, type and UTC day is counted.
// @Tags         Tracking
// @Accept       json
// @Produce      json
// @Param        event    path  string             true  "Event type"  Enums(impression, click, engagement, conversion)
// @Param        request  body  TrackEventRequest  true  "Tracked ad"
// @Success      200  {object}  handlers.RespTrackEvent
// @Failure      429  {object}  handlers.RespOK
// @Router       /api/v1/track/{event} [post]
func ApiTrackEvent(svc *metering.Service, log *zap.SugaredLogger, eventType types.EventType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TrackEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.RecordEvent(c.Request.Context(), &metering.RecordEventRequest{
			AdID:           req.AdID,
			EventType:      eventType,
			EngagementType: req.EngagementType,
			Fingerprint:    mw.Fingerprint(c),
		})
		if err != nil {
			code := errorCode(err)
			if code == response.APIResponseCodeError {
				logctx.FromGin(c, log).Errorw("failed to record event", "ad_id", req.AdID, "event_type", eventType, "error", err)
			}
			c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterTrackingRoutes(r gin.IRouter, svc *metering.Service, log *zap.SugaredLogger) {
	r.POST("/impression", ApiTrackEvent(svc, log, types.EventTypeImpression))
	r.POST("/click", ApiTrackEvent(svc, log, types.EventTypeClick))
	r.POST("/engagement", ApiTrackEvent(svc, log, types.EventTypeEngagement))
	r.POST("/conversion", ApiTrackEvent(svc, log, types.EventTypeConversion))
}
