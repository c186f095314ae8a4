package handlers

import (
	adsvc "github.com/fatflowers/admeter/internal/app/service/ad"
	"github.com/fatflowers/admeter/internal/app/service/metering"
	nh "github.com/fatflowers/admeter/internal/app/service/notification_handler"
	"github.com/fatflowers/admeter/internal/app/service/quota"
	"github.com/fatflowers/admeter/internal/app/service/statistics"
	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespTrackEvent struct {
	Code    response.APIResponseCode   `json:"code"`
	Message string                     `json:"message"`
	Data    metering.RecordEventResult `json:"data"`
}

// RespReservation is also returned with code 40300 when the quota is denied.
type RespReservation struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    quota.Reservation        `json:"data"`
}

type RespAdResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    adsvc.Result             `json:"data"`
}

type RespAd struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Ad                `json:"data"`
}

type RespWebhook struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    nh.HandleResult          `json:"data"`
}

type RespSubscription struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Subscription      `json:"data"`
}

type RespAdAnalytics struct {
	Code    response.APIResponseCode   `json:"code"`
	Message string                     `json:"message"`
	Data    statistics.AdAnalyticsView `json:"data"`
}

type RespAdStatistic struct {
	Code    response.APIResponseCode       `json:"code"`
	Message string                         `json:"message"`
	Data    statistics.AdStatisticResponse `json:"data"`
}

type RespDeadLetters struct {
	Code    response.APIResponseCode      `json:"code"`
	Message string                        `json:"message"`
	Data    quota.ScanDeadLettersResponse `json:"data"`
}
