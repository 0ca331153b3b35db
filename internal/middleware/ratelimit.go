package middleware

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"crewpay/internal/repositories/cache"
	"crewpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// Limiter is satisfied by cache.RateCounter.
type Limiter interface {
	Allow(ctx context.Context, subject string) (cache.RateDecision, error)
	Limit() int64
}

// RateLimit counts requests per caller in a window shared across
// instances. When the counter store is unreachable the request is let
// through and the failure logged.
func RateLimit(limiter Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if actor, ok := ActorFrom(c); ok && actor.UserID != 0 {
			subject = fmt.Sprintf("user:%d", actor.UserID)
		}

		decision, err := limiter.Allow(c.UserContext(), subject)
		if err != nil {
			log.Printf("rate limiter unavailable, allowing %s: %v", subject, err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if !decision.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(decision.ResetIn.Seconds())+1))
			return response.Error(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
