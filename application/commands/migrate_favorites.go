package commands

import (
	"context"
	"sort"

	"gamegroup-backend/domain/core/entities"
	apperrors "gamegroup-backend/pkg/errors"

	"go.uber.org/zap"
)

// MigrationResult summarizes a favorites migration run
type MigrationResult struct {
	Users   int `json:"users"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// MigrateFavorites copies every user's embedded favorites list into the
// favorites collection. Pairs already present are skipped, so the migration
// can be rerun safely.
func (h *Handler) MigrateFavorites(ctx context.Context) (*MigrationResult, error) {
	result := &MigrationResult{}

	users, err := h.repos.Users.ListWithFavorites(ctx)
	if err != nil {
		if apperrors.IsNotFound(err) {
			h.logger.Info("No user records to migrate")
			return result, nil
		}
		return nil, err
	}

	for _, user := range users {
		result.Users++
		for _, gameID := range distinct(user.FavoriteGameIDs) {
			exists, err := h.repos.Favorites.Exists(ctx, user.ID, gameID)
			if err != nil && !apperrors.IsCollectionNotFound(err) {
				return nil, err
			}
			if exists {
				result.Skipped++
				continue
			}

			createdAt := user.CreatedAt
			if createdAt.IsZero() {
				createdAt = h.now()
			}
			favorite := &entities.Favorite{
				ID:        h.newID(),
				UserID:    user.ID,
				GameID:    gameID,
				CreatedAt: createdAt,
			}
			if err := h.repos.Favorites.Save(ctx, favorite); err != nil {
				return nil, err
			}
			result.Created++
		}
	}

	if result.Created > 0 {
		h.invalidator.InvalidateGameCaches()
	}

	h.logger.Info("Favorites migrated",
		zap.Int("users", result.Users),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func distinct(ids []string) []string {
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
