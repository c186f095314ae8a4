package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	nh "github.com/fatflowers/admeter/internal/app/service/notification_handler"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/response"
	"github.com/fatflowers/admeter/pkg/types"
)

const maxWebhookBody = 1 << 20

// webhookStatus maps reconciler errors onto HTTP statuses. Providers retry on
// any non-2xx answer.
func webhookStatus(err error) (int, response.APIResponseCode) {
	switch {
	case errors.Is(err, nh.ErrInvalidSignature), errors.Is(err, nh.ErrMissingCredentials):
		return http.StatusUnauthorized, response.APIResponseCodeUnauthorized
	case errors.Is(err, nh.ErrMalformedEvent):
		return http.StatusBadRequest, response.APIResponseCodeBadRequest
	case errors.Is(err, nh.ErrUnsupportedProvider):
		return http.StatusNotFound, response.APIResponseCodeNotFound
	}
	return http.StatusInternalServerError, response.APIResponseCodeError
}

// @Summary      Payment Provider Webhook
// @Description  Receives PayPal, Stripe and App Store notifications. Deliveries are verified against the provider signature and applied at most once per provider event id.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        provider  path  string  true  "Provider"  Enums(paypal, stripe, apple)
// @Param        payload   body  object  true  "Provider payload"
// @Success      200  {object}  handlers.RespWebhook
// @Failure      400  {object}  handlers.RespOK
// @Failure      401  {object}  handlers.RespOK
// @Failure      500  {object}  handlers.RespOK
// @Router       /api/v1/webhook/{provider} [post]
func ApiProviderWebhook(h *nh.NotificationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := types.PaymentProvider(c.Param("provider"))
		log := logctx.FromGin(c, h.Logger).With("provider", provider)

		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			log.Warnw("failed to read webhook body", "error", err)
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := h.HandleNotification(c.Request.Context(), provider, payload, c.Request.Header)
		if err != nil {
			status, code := webhookStatus(err)
			if status >= http.StatusInternalServerError {
				log.Errorw("webhook_handle_error", "error", err)
			}
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *nh.NotificationHandler) {
	r.POST("/:provider", ApiProviderWebhook(h))
}
