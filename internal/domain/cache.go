package domain

import (
	"context"
	"fmt"
	"time"
)

const (
	PlanViewKeyPrefix  = "plan:view:"
	DashboardKeyPrefix = "dashboard:"
)

// CacheRepository is a JSON value cache. Get returns an error on a miss.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// InvalidateUser drops every cached view derived from the user's data.
	InvalidateUser(ctx context.Context, userID string) error
}

func PlanViewKey(userID string, programID uint) string {
	return fmt.Sprintf("%s%s:%d", PlanViewKeyPrefix, userID, programID)
}

func DashboardKey(userID, period string) string {
	return DashboardKeyPrefix + userID + ":" + period
}
