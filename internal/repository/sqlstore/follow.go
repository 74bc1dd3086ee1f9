package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
)

var _ repository.FollowRepository = (*FollowStore)(nil)

// FollowStore manages user_followers edges. There is no UNIQUE constraint on
// (follower_id, followed_id); callers check Exists first.
type FollowStore struct {
	db *sqlx.DB
}

func (s *FollowStore) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		s.db.Rebind(`SELECT COUNT(*) FROM user_followers WHERE follower_id = ? AND followed_id = ?`),
		followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("sqlstore: checking follow %s->%s: %w", followerID, followedID, err)
	}
	return n > 0, nil
}

func (s *FollowStore) Insert(ctx context.Context, edge *model.FollowEdge) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO user_followers (follower_id, followed_id, created_at) VALUES (?, ?, ?)`),
		edge.FollowerID, edge.FollowedID, edge.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting follow %s->%s: %w", edge.FollowerID, edge.FollowedID, err)
	}
	return nil
}

// Delete is unconditional; removing a missing edge is not an error.
func (s *FollowStore) Delete(ctx context.Context, followerID, followedID string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM user_followers WHERE follower_id = ? AND followed_id = ?`),
		followerID, followedID)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting follow %s->%s: %w", followerID, followedID, err)
	}
	return nil
}

func (s *FollowStore) Followers(ctx context.Context, userID string) ([]model.Profile, error) {
	return s.listProfiles(ctx, "follower_id", "followed_id", userID)
}

func (s *FollowStore) Following(ctx context.Context, userID string) ([]model.Profile, error) {
	return s.listProfiles(ctx, "followed_id", "follower_id", userID)
}

// listProfiles joins edges to profiles: it returns the profile on the joinCol
// side of every edge whose filterCol equals userID.
func (s *FollowStore) listProfiles(ctx context.Context, joinCol, filterCol, userID string) ([]model.Profile, error) {
	query := `SELECT p.id, p.username, p.avatar_url, p.bio, p.location, p.website,
		p.twitter_handle, p.discord_handle, p.created_at, p.updated_at
		FROM user_followers f
		JOIN profiles p ON p.id = f.` + joinCol + `
		WHERE f.` + filterCol + ` = ?
		ORDER BY f.created_at DESC`

	profiles := []model.Profile{}
	if err := s.db.SelectContext(ctx, &profiles, s.db.Rebind(query), userID); err != nil {
		return nil, fmt.Errorf("sqlstore: listing %s of %s: %w", joinCol, userID, err)
	}
	return profiles, nil
}

func (s *FollowStore) CountFollowers(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "followed_id", userID)
}

func (s *FollowStore) CountFollowing(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "follower_id", userID)
}

func (s *FollowStore) count(ctx context.Context, column, userID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		s.db.Rebind(`SELECT COUNT(*) FROM user_followers WHERE `+column+` = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: counting edges by %s for %s: %w", column, userID, err)
	}
	return n, nil
}
