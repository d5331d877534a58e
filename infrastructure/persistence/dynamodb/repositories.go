package dynamodb

import (
	"gamegroup-backend/application/ports"

	"go.uber.org/zap"
)

// NewRepositories builds one repository per collection on a shared client.
func NewRepositories(client API, tables Tables, logger *zap.Logger) ports.Repositories {
	return ports.Repositories{
		Games:     NewGameRepository(client, tables.Games, logger.Named("games")),
		Favorites: NewFavoriteRepository(client, tables.Favorites, logger.Named("favorites")),
		Users:     NewUserRepository(client, tables.Users, logger.Named("users")),
		Votes:     NewVoteRepository(client, tables.Votes, tables.VotesByUserIndex, logger.Named("votes")),
		Teams:     NewTeamRepository(client, tables.Teams, tables.TeamsByStatusIndex, logger.Named("teams")),
	}
}
