package service

import (
	"context"
	"encoding/json"
	"time"

	"campus-api/internal/domain"
	"campus-api/pkg/logger"
	"campus-api/pkg/redis"
)

// CacheService is the best-effort Redis cache in front of the document
// store. Caching never sits on the correctness path: every miss or
// Redis failure falls through to the store, and writes invalidate
// rather than update.
type CacheService struct {
	redis *redis.Client
	log   *logger.Logger
}

// NewCacheService creates a cache service over an optional Redis
// client; a nil client turns every operation into a no-op miss.
func NewCacheService(redisClient *redis.Client, log *logger.Logger) *CacheService {
	return &CacheService{redis: redisClient, log: log}
}

func (c *CacheService) enabled() bool {
	return c != nil && c.redis != nil
}

// GetTally returns a cached tally, or nil on miss
func (c *CacheService) GetTally(ctx context.Context, electionID string) *domain.TallyResult {
	if !c.enabled() {
		return nil
	}
	raw, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyElectionTally(electionID))
	if err != nil || raw == "" {
		return nil
	}
	var tally domain.TallyResult
	if err := json.Unmarshal([]byte(raw), &tally); err != nil {
		c.log.WithError(err).Warn("failed to decode cached tally")
		return nil
	}
	return &tally
}

// SetTally caches a tally with a short TTL
func (c *CacheService) SetTally(ctx context.Context, tally *domain.TallyResult) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(tally)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyElectionTally(tally.ElectionID), raw, redis.TTLTally); err != nil {
		c.log.WithError(err).Warn("failed to cache tally")
	}
}

// GetVoterBallot returns the cached candidate id the voter chose, or
// empty on miss
func (c *CacheService) GetVoterBallot(ctx context.Context, electionID, voterID string) string {
	if !c.enabled() {
		return ""
	}
	val, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyVoterBallot(electionID, voterID))
	if err != nil {
		return ""
	}
	return val
}

// SetVoterBallot caches the voter's candidate choice
func (c *CacheService) SetVoterBallot(ctx context.Context, electionID, voterID, candidateID string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyVoterBallot(electionID, voterID), candidateID, redis.TTLVoterBallot); err != nil {
		c.log.WithError(err).Warn("failed to cache voter ballot")
	}
}

// InvalidateElection drops all cached state for an election
func (c *CacheService) InvalidateElection(electionID string) {
	if !c.enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.redis.Delete(ctx,
			c.redis.KeyBuilder.KeyElectionTally(electionID),
			c.redis.KeyBuilder.KeyElectionView(electionID),
			c.redis.KeyBuilder.KeyCandidateList(electionID),
		); err != nil {
			c.log.WithError(err).Warn("failed to invalidate election caches")
		}
	}()
}

// InvalidatePendingBookings drops the pending-bookings cache
func (c *CacheService) InvalidatePendingBookings() {
	if !c.enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyPendingBookings()); err != nil {
			c.log.WithError(err).Warn("failed to invalidate pending bookings cache")
		}
	}()
}

// GetProfileRole returns the cached role for a user, or empty on miss
func (c *CacheService) GetProfileRole(ctx context.Context, userID string) domain.Role {
	if !c.enabled() {
		return ""
	}
	val, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyProfileRole(userID))
	if err != nil {
		return ""
	}
	return domain.Role(val)
}

// SetProfileRole caches a user's resolved role
func (c *CacheService) SetProfileRole(ctx context.Context, userID string, role domain.Role) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyProfileRole(userID), string(role), redis.TTLProfileRole); err != nil {
		c.log.WithError(err).Warn("failed to cache profile role")
	}
}
