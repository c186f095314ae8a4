package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/admeter/internal/app/service/quota"
	"github.com/fatflowers/admeter/internal/app/service/statistics"
	subsvc "github.com/fatflowers/admeter/internal/app/service/subscription"
	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/response"
)

type GetSubscriptionRequest struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
}

// @Summary      Create Subscription (Admin)
// @Description  Purchases a plan for an owner and opens its first billing period.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body subsvc.CreateSubscriptionRequest true "Subscription"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/admin/create_subscription [post]
func ApiCreateSubscription(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subsvc.CreateSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := sub.Create(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Subscription (Admin)
// @Description  Looks a subscription up by id, or the owner's current one by owner_id.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body GetSubscriptionRequest true "Lookup"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/admin/get_subscription [post]
func ApiGetSubscription(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GetSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		var (
			res *models.Subscription
			err error
		)
		switch {
		case req.ID != "":
			res, err = sub.GetByID(c.Request.Context(), req.ID)
		case req.OwnerID != "":
			res, err = sub.GetByOwner(c.Request.Context(), req.OwnerID)
		default:
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing id or owner_id"))
			return
		}
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Ad Analytics (Admin)
// @Description  Returns the lifetime analytics record of an ad.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body AdIDRequest true "Ad"
// @Success      200  {object}  handlers.RespAdAnalytics
// @Router       /api/v1/admin/get_ad_analytics [post]
func ApiGetAdAnalytics(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetAdAnalytics(c.Request.Context(), req.AdID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Ad Statistic (Admin)
// @Description  Returns daily series computed from the rollups.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.AdStatisticRequest true "Statistic request"
// @Success      200  {object}  handlers.RespAdStatistic
// @Router       /api/v1/admin/get_ad_statistic [post]
func ApiGetAdStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.AdStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetAdStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Compensation Dead Letters (Admin)
// @Description  Retrieves a paginated and filterable list of failed compensations.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body quota.ScanDeadLettersRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespDeadLetters
// @Router       /api/v1/admin/list_dead_letters [post]
func ApiListDeadLetters(q *quota.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req quota.ScanDeadLettersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := q.ScanDeadLetters(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, sub *subsvc.Service, stats *statistics.Service, q *quota.Service) {
	r.POST("/create_subscription", ApiCreateSubscription(sub))
	r.POST("/get_subscription", ApiGetSubscription(sub))
	r.POST("/get_ad_analytics", ApiGetAdAnalytics(stats))
	r.POST("/get_ad_statistic", ApiGetAdStatistic(stats))
	r.POST("/list_dead_letters", ApiListDeadLetters(q))
}
