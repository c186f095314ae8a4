package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/admeter/internal/app/api/server"
	"github.com/fatflowers/admeter/internal/app/service/ad"
	"github.com/fatflowers/admeter/internal/app/service/billingperiod"
	"github.com/fatflowers/admeter/internal/app/service/metering"
	notificationhandler "github.com/fatflowers/admeter/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/admeter/internal/app/service/notification_log"
	"github.com/fatflowers/admeter/internal/app/service/quota"
	"github.com/fatflowers/admeter/internal/app/service/statistics"
	"github.com/fatflowers/admeter/internal/app/service/subscription"
	"github.com/fatflowers/admeter/internal/platform/cache"
	"github.com/fatflowers/admeter/internal/platform/db"
	"github.com/fatflowers/admeter/internal/platform/ratelimit"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	clock.Module,
	db.Module,
	cache.Module,
	ratelimit.Module,
	server.Module,
	subscription.Module,
	billingperiod.Module,
	quota.Module,
	ad.Module,
	metering.Module,
	statistics.Module,
	notificationlog.Module,
	notificationhandler.Module,
)
