package services

import (
	"gamegroup-backend/infrastructure/cache"

	"go.uber.org/zap"
)

// CacheInvalidator clears cached reads after a mutation. Writers call it
// directly, bypassing the read path.
type CacheInvalidator struct {
	cache  *cache.TTLCache
	logger *zap.Logger
}

// NewCacheInvalidator creates a new CacheInvalidator
func NewCacheInvalidator(c *cache.TTLCache, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: c, logger: logger}
}

// InvalidateGameCaches clears favorite counts, the full game list and every
// keyed game batch.
func (i *CacheInvalidator) InvalidateGameCaches() {
	i.cache.Delete(keyFavoriteCounts)
	i.cache.Delete(keyGamesAll)
	removed := i.cache.DeletePrefix(prefixBatchGames)
	removed += i.cache.DeletePrefix(prefixEnhancedGames)

	i.logger.Debug("Invalidated game caches", zap.Int("batchEntries", removed))
}

// InvalidateVoteCaches clears every per-user daily vote and every batched
// vote statistics entry.
func (i *CacheInvalidator) InvalidateVoteCaches() {
	removed := i.cache.DeletePrefix(prefixUserVote)
	removed += i.cache.DeletePrefix(prefixBatchVoteStats)

	i.logger.Debug("Invalidated vote caches", zap.Int("entries", removed))
}

// InvalidateAll drops every cached entry
func (i *CacheInvalidator) InvalidateAll() {
	i.cache.Clear()
}
