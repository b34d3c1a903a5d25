package services

import (
	"context"
	"fmt"

	"friend-chat-service/internal/models"
	"friend-chat-service/internal/repositories"
)

// briefsByID loads public briefs for ids. Missing users map to an id-only brief.
func briefsByID(ctx context.Context, users repositories.UserRepository, ids []int64) (map[int64]models.PublicUser, error) {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	list, err := users.BulkUsers(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load user briefs: %w", err)
	}

	out := make(map[int64]models.PublicUser, len(unique))
	for _, id := range unique {
		out[id] = models.PublicUser{ID: id}
	}
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}
