package sqlstore

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/model"
)

func createTestReview(t *testing.T, s *Store, id, userID string, gameID int64, rating, minute int) {
	t.Helper()
	r := &model.Review{
		ID: id, UserID: userID, GameID: gameID, Rating: rating,
		CreatedAt: at(minute), UpdatedAt: at(minute),
	}
	if err := s.Reviews().Insert(context.Background(), r); err != nil {
		t.Fatalf("failed to create review %s: %v", id, err)
	}
}

func TestReviewInsertFindUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "alice")

	r := &model.Review{
		ID: "r1", UserID: "alice", GameID: 1020, Rating: 5,
		ReviewText: strPtr("masterpiece"), CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	if err := s.Reviews().Insert(ctx, r); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := s.Reviews().Update(ctx, "r1", 3, nil, at(1)); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := s.Reviews().FindByUserAndGame(ctx, "alice", 1020)
	if err != nil {
		t.Fatalf("FindByUserAndGame() error = %v", err)
	}
	if got.ID != "r1" || got.Rating != 3 {
		t.Errorf("got id=%s rating=%d, want r1/3", got.ID, got.Rating)
	}
	if got.ReviewText != nil {
		t.Errorf("ReviewText = %q, want nil", *got.ReviewText)
	}
	if !got.UpdatedAt.Equal(at(1)) || !got.CreatedAt.Equal(baseTime) {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}

	if _, err := s.Reviews().FindByUserAndGame(ctx, "alice", 1); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindByUserAndGame() for missing review error = %v, want ErrNotFound", err)
	}
	if _, err := s.Reviews().GetByID(ctx, "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() for missing review error = %v, want ErrNotFound", err)
	}
}

func TestReviewDelete_OwnerOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "alice")
	createTestProfile(t, s, "mallory")
	createTestReview(t, s, "r1", "alice", 1, 4, 0)

	if err := s.Reviews().Delete(ctx, "r1", "mallory"); err != nil {
		t.Fatalf("Delete() by non-owner error = %v", err)
	}
	if _, err := s.Reviews().GetByID(ctx, "r1"); err != nil {
		t.Fatalf("review vanished after non-owner delete: %v", err)
	}
	if err := s.Reviews().Delete(ctx, "r1", "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Reviews().GetByID(ctx, "r1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestReviewListings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "alice")
	createTestProfile(t, s, "bob")
	createTestReview(t, s, "a1", "alice", 100, 3, 1)
	createTestReview(t, s, "b1", "bob", 100, 4, 2)
	createTestReview(t, s, "a2", "alice", 200, 5, 3)

	byGame, err := s.Reviews().ListByGame(ctx, 100)
	if err != nil {
		t.Fatalf("ListByGame() error = %v", err)
	}
	assertReviewIDs(t, "ListByGame(100)", byGame, "b1", "a1")

	byUser, err := s.Reviews().ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	assertReviewIDs(t, "ListByUser(alice)", byUser, "a2", "a1")

	recent, err := s.Reviews().ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	assertReviewIDs(t, "ListRecent(2)", recent, "a2", "b1")
}

func TestReviewRatings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "alice")
	createTestProfile(t, s, "bob")
	createTestReview(t, s, "a1", "alice", 100, 3, 1)
	createTestReview(t, s, "b1", "bob", 100, 5, 2)

	ratings, err := s.Reviews().Ratings(ctx, 100)
	if err != nil {
		t.Fatalf("Ratings() error = %v", err)
	}
	sort.Ints(ratings)
	if len(ratings) != 2 || ratings[0] != 3 || ratings[1] != 5 {
		t.Errorf("Ratings(100) = %v, want [3 5]", ratings)
	}

	none, err := s.Reviews().Ratings(ctx, 999)
	if err != nil {
		t.Fatalf("Ratings() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Ratings(999) = %v, want empty", none)
	}
}

func assertReviewIDs(t *testing.T, label string, got []model.Review, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s returned %d reviews, want %d", label, len(got), len(want))
	}
	for i, r := range got {
		if r.ID != want[i] {
			t.Errorf("%s[%d] = %s, want %s", label, i, r.ID, want[i])
		}
	}
}
