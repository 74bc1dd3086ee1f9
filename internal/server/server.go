// Package server is the composition root: it opens the store, builds the
// identity provider, catalog client, services and handlers, and mounts them
// on one chi router.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/gamerater/internal/auth"
	"github.com/sakif/gamerater/internal/catalog"
	"github.com/sakif/gamerater/internal/config"
	"github.com/sakif/gamerater/internal/handler"
	"github.com/sakif/gamerater/internal/middleware"
	"github.com/sakif/gamerater/internal/repository/sqlstore"
	"github.com/sakif/gamerater/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database handle. The store is closed when
// Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  *sqlstore.Store
}

// New opens and migrates the database, then wires everything onto the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s, err := newWithStore(cfg, store, logger, nil)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// newWithStore wires a server around an already migrated store. A nil
// httpClient gets one with the configured catalog timeout.
func newWithStore(cfg *config.Config, store *sqlstore.Store, logger *slog.Logger, httpClient *http.Client) (*Server, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Catalog.Timeout}
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	var provider auth.Provider
	switch cfg.Auth.Provider {
	case config.ProviderSupabase:
		provider = auth.NewSupabaseProvider(auth.SupabaseConfig{
			URL:     cfg.Supabase.URL,
			AnonKey: cfg.Supabase.AnonKey,
		}, httpClient)
	default:
		passwords := auth.NewPasswordService()
		provider = auth.NewLocalProvider(store.Accounts(), passwords, tokens)
	}

	if !cfg.CatalogEnabled() {
		logger.Warn("catalog credentials not set; game lookups will fail")
	}
	tokenCache := catalog.NewTokenCache(catalog.TokenConfig{
		ClientID:     cfg.Catalog.ClientID,
		ClientSecret: cfg.Catalog.ClientSecret,
		TokenURL:     cfg.Catalog.TokenURL,
	}, httpClient, nil)
	games := catalog.New(catalog.Config{
		BaseURL:  cfg.Catalog.BaseURL,
		ClientID: cfg.Catalog.ClientID,
	}, tokenCache, httpClient, logger)

	profileSvc := service.NewProfileService(store.Profiles(), store.Follows(), store.Reviews(), store.Completions(), provider, logger)
	collectionSvc := service.NewCollectionService(store.Completions(), logger)
	reviewSvc := service.NewReviewService(store.Reviews(), store.Profiles(), games, cfg.Catalog.Fanout, logger)
	authSvc := service.NewAuthService(provider, store.Profiles(), logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.routes(tokens, handlers{
		auth:       handler.NewAuthHandler(authSvc, cfg.Server.CookieSecure, logger),
		profile:    handler.NewProfileHandler(profileSvc, collectionSvc, games, cfg.Server.CookieSecure, logger),
		game:       handler.NewGameHandler(games, reviewSvc, collectionSvc, logger),
		collection: handler.NewCollectionHandler(collectionSvc, logger),
		review:     handler.NewReviewHandler(reviewSvc, logger),
	})
	return s, nil
}

type handlers struct {
	auth       *handler.AuthHandler
	profile    *handler.ProfileHandler
	game       *handler.GameHandler
	collection *handler.CollectionHandler
	review     *handler.ReviewHandler
}

// routes mounts middleware and endpoints. Order matters: RealIP must run
// before the rate limiter, and Metrics reads the route pattern only after
// the router has matched.
func (s *Server) routes(tokens *auth.TokenService, h handlers) {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	if len(s.config.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(auth.OptionalAuth(tokens))

	r.Get("/healthz", handler.Healthz(s.store, s.logger))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", h.auth.SignUp)
		r.Post("/sign-in", h.auth.SignIn)
		r.Post("/sign-out", h.auth.SignOut)
	})

	searchLimiter := middleware.NewRateLimiter(s.config.RateLimit.SearchRPS, s.config.RateLimit.SearchBurst, "/api/games/search")

	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.profile.Me)
		r.Put("/me/profile", h.profile.UpdateMe)
		r.Delete("/me/profile", h.profile.DeleteMe)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", h.profile.UserByID)
			r.Post("/follow", h.profile.Follow)
			r.Delete("/follow", h.profile.Unfollow)
		})

		r.Route("/profiles/{username}", func(r chi.Router) {
			r.Get("/", h.profile.Page)
			r.Get("/reviews", h.profile.Reviews)
			r.Get("/collection", h.profile.Collection)
			r.Get("/followers", h.profile.Followers)
			r.Get("/following", h.profile.Following)
		})

		r.Route("/games", func(r chi.Router) {
			r.With(searchLimiter.Handler).Get("/search", h.game.Search)
			r.Get("/popular", h.game.Popular)
			r.Get("/{gameID}", h.game.Page)
			r.Get("/{gameID}/reviews", h.game.Reviews)
			r.Get("/{gameID}/rating", h.game.Rating)
			r.Get("/{gameID}/collection", h.game.InCollection)
		})

		r.Route("/collection", func(r chi.Router) {
			r.Post("/", h.collection.Add)
			r.Patch("/{id}", h.collection.UpdateStatus)
			r.Delete("/{id}", h.collection.Remove)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", h.review.Save)
			r.Get("/recent", h.review.Recent)
			r.Get("/{id}", h.review.ByID)
			r.Delete("/{id}", h.review.Delete)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("driver", s.config.Database.Driver),
			slog.String("authProvider", s.config.Auth.Provider),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
