package contest

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/ratelimit"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
)

// NewRedisLimiter builds the event-feed rate limiter. Auth is single-user,
// so subscribers are identified by client address.
func NewRedisLimiter(
	redisHost string,
	limiterKey string,
	perMinute int64,
	failOpen bool,
) middleware.RateLimiterConfig {
	redisAddr := redisHost + ":6379"
	logger.Logger.Debug("Setting up rate limiter with Redis", "redis", redisAddr)
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	store := ratelimit.NewRedisLimitStore(ratelimit.RedisLimiterConfig{
		PerMinute:   perMinute,
		RedisClient: rdb,
		LimiterKey:  limiterKey,
		FailOpen:    failOpen,
	})

	return middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, _ error) error {
			return context.JSON(http.StatusForbidden, nil)
		},
		DenyHandler: func(context echo.Context, _ string, _ error) error {
			return context.JSON(http.StatusTooManyRequests, nil)
		},
	}
}
