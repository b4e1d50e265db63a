package monitoring

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthChecker reports liveness and readiness of the service's backing
// stores.
type HealthChecker struct {
	mongo *mongo.Client
	redis *redis.Client
}

func NewHealthChecker(mongoClient *mongo.Client, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{
		mongo: mongoClient,
		redis: redisClient,
	}
}

// CheckResult reports one dependency's status.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Ready pings every backing store. The service should not receive traffic
// until all of them respond.
func (h *HealthChecker) Ready(ctx context.Context) (bool, map[string]CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	checks := make(map[string]CheckResult, 2)
	healthy := true

	if err := h.mongo.Ping(ctx, nil); err != nil {
		checks["mongodb"] = CheckResult{Status: "down", Message: err.Error()}
		healthy = false
	} else {
		checks["mongodb"] = CheckResult{Status: "up"}
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = CheckResult{Status: "down", Message: err.Error()}
		healthy = false
	} else {
		checks["redis"] = CheckResult{Status: "up"}
	}

	return healthy, checks
}
