package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrDuplicateDelivery is returned when a payment reference has already been
// processed within the guard window.
var ErrDuplicateDelivery = errors.New("payment notification already processed")

const (
	replayKeyPrefix = "payment:ref:"

	// Gateways retry undelivered webhooks for at most a couple of days; the
	// unique index on bookings.transaction_id remains the authoritative
	// backstop after the key expires.
	replayGuardTTL = 72 * time.Hour
)

// ReplayGuard is the fast-path defense against webhook redelivery. It marks
// each external payment reference in Redis with SET NX before the
// orchestrator runs, so a redelivered notification is rejected without
// touching the database.
type ReplayGuard struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewReplayGuard(redisClient *redis.Client, log *logrus.Logger) *ReplayGuard {
	return &ReplayGuard{
		redisClient: redisClient,
		log:         log,
	}
}

// Claim marks the reference as seen. Returns ErrDuplicateDelivery when the
// reference was already claimed.
func (g *ReplayGuard) Claim(ctx context.Context, externalReference string) error {
	key := replayKeyPrefix + externalReference

	ok, err := g.redisClient.SetNX(ctx, key, 1, replayGuardTTL).Result()
	if err != nil {
		g.log.Warnf("Failed to claim payment reference %s: %+v", externalReference, err)
		return fmt.Errorf("claim payment reference %s: %w", externalReference, err)
	}
	if !ok {
		return ErrDuplicateDelivery
	}
	return nil
}

// Release frees the reference again so a later legitimate retry can pass the
// guard, used when processing failed before any booking was created.
func (g *ReplayGuard) Release(ctx context.Context, externalReference string) {
	key := replayKeyPrefix + externalReference
	if err := g.redisClient.Del(ctx, key).Err(); err != nil {
		g.log.Warnf("Failed to release payment reference %s (non-fatal): %+v", externalReference, err)
	}
}
