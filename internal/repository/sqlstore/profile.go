package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
)

var _ repository.ProfileRepository = (*ProfileStore)(nil)

const profileColumns = `id, username, avatar_url, bio, location, website,
	twitter_handle, discord_handle, created_at, updated_at`

// ProfileStore reads and writes the profiles table.
type ProfileStore struct {
	db *sqlx.DB
}

func (s *ProfileStore) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.GetContext(ctx, &p,
		s.db.Rebind(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", id)
		}
		return nil, fmt.Errorf("sqlstore: getting profile %s: %w", id, err)
	}
	return &p, nil
}

func (s *ProfileStore) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.GetContext(ctx, &p,
		s.db.Rebind(`SELECT `+profileColumns+` FROM profiles WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", username)
		}
		return nil, fmt.Errorf("sqlstore: getting profile by username %q: %w", username, err)
	}
	return &p, nil
}

// GetByIDs batch-loads profiles with a single IN query. sqlx.In expands the
// slice into one placeholder per element.
func (s *ProfileStore) GetByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+profileColumns+` FROM profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building profile batch query: %w", err)
	}
	profiles := make([]model.Profile, 0, len(ids))
	if err := s.db.SelectContext(ctx, &profiles, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: batch-loading %d profiles: %w", len(ids), err)
	}
	return profiles, nil
}

func (s *ProfileStore) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		s.db.Rebind(`SELECT COUNT(*) FROM profiles WHERE username = ? AND id <> ?`),
		username, excludeID)
	if err != nil {
		return false, fmt.Errorf("sqlstore: checking username %q: %w", username, err)
	}
	return n > 0, nil
}

func (s *ProfileStore) Insert(ctx context.Context, p *model.Profile) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Username, p.AvatarURL, p.Bio, p.Location, p.Website,
		p.TwitterHandle, p.DiscordHandle, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("profile", p.Username)
		}
		return fmt.Errorf("sqlstore: inserting profile %s: %w", p.ID, err)
	}
	return nil
}

// Update writes only the fields present in patch, plus updated_at.
//
// Column names come from the fixed list below, never from input, so building
// the SET clause with string concatenation is safe; values still go through
// placeholders.
func (s *ProfileStore) Update(ctx context.Context, id string, patch model.ProfileUpdate, updatedAt time.Time) error {
	fields := []struct {
		column string
		value  *string
	}{
		{"username", patch.Username},
		{"avatar_url", patch.AvatarURL},
		{"bio", patch.Bio},
		{"location", patch.Location},
		{"website", patch.Website},
		{"twitter_handle", patch.TwitterHandle},
		{"discord_handle", patch.DiscordHandle},
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		sets = append(sets, f.column+" = ?")
		args = append(args, *f.value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt, id)

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE id = ?`),
		args...)
	if err != nil {
		if isUniqueViolation(err) && patch.Username != nil {
			return apperror.Conflict("profile", *patch.Username)
		}
		return fmt.Errorf("sqlstore: updating profile %s: %w", id, err)
	}
	return nil
}

// Delete removes the profile. Follow edges, completions and reviews go with it
// through ON DELETE CASCADE.
func (s *ProfileStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM profiles WHERE id = ?`), id); err != nil {
		return fmt.Errorf("sqlstore: deleting profile %s: %w", id, err)
	}
	return nil
}
