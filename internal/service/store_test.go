package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository/sqlstore"
)

// newSQLStore opens a migrated in-memory SQLite store so the services run
// against the real foreign keys.
func newSQLStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	return s
}

func TestWritesWithoutProfile(t *testing.T) {
	store := newSQLStore(t)
	collection := NewCollectionService(store.Completions(), discardLogger())
	reviews := NewReviewService(store.Reviews(), store.Profiles(), &fakeCatalog{}, 0, discardLogger())
	ctx := signedIn("no-profile-yet")

	tests := []struct {
		name  string
		write func() error
	}{
		{
			name: "add to collection",
			write: func() error {
				return collection.AddToCollection(ctx, 42, model.StatusPlaying)
			},
		},
		{
			name: "create review",
			write: func() error {
				_, err := reviews.CreateOrUpdateReview(ctx, 42, 4, "solid")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.write()
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("error = %v, want *apperror.AppError", err)
			}
			if appErr.Message != msgProfileRequired {
				t.Errorf("message = %q, want %q", appErr.Message, msgProfileRequired)
			}
		})
	}
}

func TestWritesAfterProfileCreated(t *testing.T) {
	store := newSQLStore(t)
	collection := NewCollectionService(store.Completions(), discardLogger())
	reviews := NewReviewService(store.Reviews(), store.Profiles(), &fakeCatalog{}, 0, discardLogger())
	ctx := signedIn("u1")

	if err := store.Profiles().Insert(context.Background(), &model.Profile{ID: "u1", Username: "link"}); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if err := collection.AddToCollection(ctx, 42, model.StatusPlaying); err != nil {
		t.Fatalf("AddToCollection() error = %v", err)
	}
	if !collection.IsInCollection(ctx, 42) {
		t.Error("IsInCollection() = false after add")
	}
	id, err := reviews.CreateOrUpdateReview(ctx, 42, 4, "solid")
	if err != nil {
		t.Fatalf("CreateOrUpdateReview() error = %v", err)
	}
	if id == "" {
		t.Error("CreateOrUpdateReview() returned an empty id")
	}
}
