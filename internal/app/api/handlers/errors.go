package handlers

import (
	"errors"

	adsvc "github.com/fatflowers/admeter/internal/app/service/ad"
	"github.com/fatflowers/admeter/internal/app/service/metering"
	"github.com/fatflowers/admeter/internal/app/service/statistics"
	subsvc "github.com/fatflowers/admeter/internal/app/service/subscription"
	"github.com/fatflowers/admeter/pkg/response"
	types "github.com/fatflowers/admeter/pkg/types"
)

// errorCode maps service errors onto response codes. Unknown errors are
// internal.
func errorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, adsvc.ErrAdNotFound),
		errors.Is(err, subsvc.ErrSubscriptionNotFound),
		errors.Is(err, statistics.ErrAnalyticsNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, metering.ErrInvalidEvent),
		errors.Is(err, adsvc.ErrInvalidTransition),
		errors.Is(err, subsvc.ErrPlanNotFound),
		errors.Is(err, subsvc.ErrActiveSubscriptionExists),
		errors.Is(err, types.ErrInvalidQuery):
		return response.APIResponseCodeBadRequest
	}
	return response.APIResponseCodeError
}
