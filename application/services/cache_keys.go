package services

import (
	"fmt"
	"sort"
	"strings"
)

// Cache keys. Invalidation matches the prefixed families by prefix.
const (
	keyFavoriteCounts    = "favorite_counts"
	keyGamesAll          = "games_all"
	keyEnhancedGamesAll  = "enhanced_games_all"
	prefixBatchGames     = "batch_games_"
	prefixEnhancedGames  = "enhanced_games_"
	prefixBatchVoteStats = "batch_vote_stats_"
	prefixUserVote       = "user_vote_"
)

// normalizeIDs returns the distinct non-empty ids, sorted.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func batchGamesKey(sortedIDs []string) string {
	return prefixBatchGames + strings.Join(sortedIDs, ",")
}

func enhancedGamesKey(sortedIDs []string) string {
	return prefixEnhancedGames + strings.Join(sortedIDs, ",")
}

func batchVoteStatsKey(days int) string {
	return fmt.Sprintf("%s%d", prefixBatchVoteStats, days)
}

func userVoteKey(userID, date string) string {
	return fmt.Sprintf("%s%s_%s", prefixUserVote, userID, date)
}
