package middleware

import (
	"fmt"
	"log"
	"math"

	"github.com/labstack/echo/v4"

	"outletchat/internal/infrastructure/ratelimit"
	"outletchat/pkg/errors"
	"outletchat/pkg/response"
)

// RateLimit throttles an action per authenticated user, or per client IP
// when the route is public.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get("uid").(string)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			allowed, wait := limiter.Allow(key, action)
			if !allowed {
				retryAfter := int(math.Ceil(wait.Seconds()))
				log.Printf("RATE LIMIT: %s blocked on %s (retry in %ds)", key, action, retryAfter)
				c.Response().Header().Set("Retry-After", fmt.Sprint(retryAfter))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}

			return next(c)
		}
	}
}
