// Package service is the core of the app: profile, collection, review and
// sign-in rules, expressed over the repository interfaces and the catalog.
//
// The handler -> service -> repository split is the usual one. Services never
// see HTTP; the caller's identity arrives on the context (auth.WithIdentity).
//
// TWO FAILURE CONVENTIONS:
//
//   - Reads never fail. A store error is logged and the caller gets nil, an
//     empty slice or false, so a page can still render around the gap.
//   - Writes return an *apperror.AppError whose Message is safe to show. The
//     underlying store error is kept as its Cause and logged here.
//
// Multi-step writes (check-then-insert upserts, the duplicate-follow check)
// are not transactional. Two concurrent requests for the same (user, game)
// pair can both insert.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rs/xid"
	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/auth"
)

// msgProfileRequired answers a write from a signed-in user who has not
// created a profile yet.
const msgProfileRequired = "Create your profile first."

// callerID returns the signed-in user's id or apperror.Unauthenticated.
func callerID(ctx context.Context) (string, error) {
	id, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", apperror.Unauthenticated()
	}
	return id, nil
}

// newID returns a sortable, URL-safe row id (20 chars, base32).
func newID() string {
	return xid.New().String()
}

// logReadError logs a swallowed read failure. Not-found is expected on
// point lookups and only logged at debug.
func logReadError(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	if errors.Is(err, apperror.ErrNotFound) {
		logger.Debug(msg, attrs...)
		return
	}
	logger.Error(msg, attrs...)
}

// dedupeStrings keeps the first occurrence of each value.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
