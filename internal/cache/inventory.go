package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	TripKeyPrefix      = "trip:%d"
	CountryRankKeyName = "trips:countries"
)

const (
	UserTTL        = 5 * time.Minute
	TripTTL        = 30 * time.Minute
	CountryRankTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func TripKey(tripID uint) string {
	return fmt.Sprintf(TripKeyPrefix, tripID)
}

func CountryRankKey() string {
	return CountryRankKeyName
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateTrip(ctx context.Context, tripID uint) {
	Invalidate(ctx, TripKey(tripID))
	Invalidate(ctx, CountryRankKey())
}
