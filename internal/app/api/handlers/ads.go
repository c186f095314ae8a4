package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	adsvc "github.com/fatflowers/admeter/internal/app/service/ad"
	"github.com/fatflowers/admeter/internal/app/service/quota"
	"github.com/fatflowers/admeter/pkg/response"
)

type OwnerRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
}

type SubscriptionIDRequest struct {
	SubscriptionID string `json:"subscription_id" binding:"required"`
}

type AdIDRequest struct {
	AdID string `json:"ad_id" binding:"required"`
}

func reservationResponse(c *gin.Context, r *quota.Reservation) {
	if !r.Granted {
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeQuotaDenied, r))
		return
	}
	c.JSON(http.StatusOK, response.OKT(r))
}

func adResultResponse(c *gin.Context, r *adsvc.Result) {
	if r.Denied() {
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeQuotaDenied, r))
		return
	}
	c.JSON(http.StatusOK, response.OKT(r))
}

// @Summary      Reserve Ad Slot
// @Description  Atomically takes one ad slot from the owner's current billing period.
// @Tags         Ads
// @Accept       json
// @Produce      json
// @Param        request body OwnerRequest true "Owner"
// @Success      200  {object}  handlers.RespReservation
// @Router       /api/v1/ads/reserve_slot [post]
func ApiReserveAdSlot(q *quota.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OwnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := q.ReserveAdSlot(c.Request.Context(), req.OwnerID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		reservationResponse(c, res)
	}
}

// @Summary      Release Ad Slot
// @Description  Compensates a reservation whose ad could not be created.
// @Tags         Ads
// @Accept       json
// @Produce      json
// @Param        request body SubscriptionIDRequest true "Subscription"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/ads/release_slot [post]
func ApiReleaseAdSlot(q *quota.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubscriptionIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := q.ReleaseAdSlot(c.Request.Context(), req.SubscriptionID); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Check Active Ad Capacity
// @Description  Reports whether the owner may have one more active ad.
// @Tags         Ads
// @Accept       json
// @Produce      json
// @Param        request body OwnerRequest true "Owner"
// @Success      200  {object}  handlers.RespReservation
// @Router       /api/v1/ads/check_active_capacity [post]
func ApiCheckActiveAdCapacity(q *quota.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OwnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := q.CheckActiveAdCapacity(c.Request.Context(), req.OwnerID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		reservationResponse(c, res)
	}
}

// @Summary      Create Ad
// @Description  Reserves a slot and creates an active ad with zeroed analytics.
// @Tags         Ads
// @Accept       json
// @Produce      json
// @Param        request body adsvc.CreateAdRequest true "Ad"
// @Success      200  {object}  handlers.RespAdResult
// @Router       /api/v1/ads/create [post]
func ApiCreateAd(svc *adsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adsvc.CreateAdRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.CreateAd(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		adResultResponse(c, res)
	}
}

// @Summary      Activate Ad
// @Tags         Ads
// @Accept       json
// @Produce      json
// @Param        request body AdIDRequest true "Ad"
// @Success      200  {object}  handlers.RespAdResult
// @Router       /api/v1/ads/activate [post]
func ApiActivateAd(svc *adsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ActivateAd(c.Request.Context(), req.AdID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		adResultResponse(c, res)
	}
}

// @Summary      Deactivate Ad
// @Tags         Ads
// @Accept       json
// @Produce      json
// @Param        request body AdIDRequest true "Ad"
// @Success      200  {object}  handlers.RespAdResult
// @Router       /api/v1/ads/deactivate [post]
func ApiDeactivateAd(svc *adsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.DeactivateAd(c.Request.Context(), req.AdID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Ad
// @Tags         Ads
// @Accept       json
// @Produce      json
// @Param        request body AdIDRequest true "Ad"
// @Success      200  {object}  handlers.RespAd
// @Router       /api/v1/ads/get [post]
func ApiGetAd(svc *adsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		ad, err := svc.GetAd(c.Request.Context(), req.AdID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(ad))
	}
}

func RegisterAdRoutes(r gin.IRouter, q *quota.Service, ads *adsvc.Service) {
	r.POST("/reserve_slot", ApiReserveAdSlot(q))
	r.POST("/release_slot", ApiReleaseAdSlot(q))
	r.POST("/check_active_capacity", ApiCheckActiveAdCapacity(q))
	r.POST("/create", ApiCreateAd(ads))
	r.POST("/activate", ApiActivateAd(ads))
	r.POST("/deactivate", ApiDeactivateAd(ads))
	r.POST("/get", ApiGetAd(ads))
}
