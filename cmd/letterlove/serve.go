package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"letterlove/internal/ai"
	"letterlove/internal/auth"
	"letterlove/internal/cache"
	"letterlove/internal/catalog"
	"letterlove/internal/config"
	"letterlove/internal/database"
	"letterlove/internal/handlers"
	"letterlove/internal/middleware"
	"letterlove/internal/render"
	"letterlove/internal/router"
	"letterlove/internal/session"
	"letterlove/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second

	// writeTimeoutSlack is added to the LLM timeout so that an enhance
	// call hits its own deadline before the server cuts the response.
	writeTimeoutSlack = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the LetterLove HTTP server.

Pending migrations run before the listener opens. In development the
database is seeded with a demo account. The server drains in-flight
requests for up to 30 seconds on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load template catalog: %w", err)
	}
	slog.Info("template catalog loaded", "templates", cat.Len())

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	// Secure cookies everywhere but development.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, auth.TokenDuration)

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("initialize share renderer: %w", err)
	}

	cardStore := store.NewCardStore(db)
	userStore := store.NewUserStore(db)
	cardCache := cache.NewCardCache(valkeyClient, cache.DefaultCardTTL)

	// The handler takes an interface; a nil *OIDCProvider must not reach it.
	var oidcProvider handlers.OIDCProvider
	if cfg.OIDCEnabled() {
		p, err := auth.NewOIDCProvider(ctx, auth.OIDCConfig{
			IssuerURL:    cfg.OIDCIssuer,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
		})
		if err != nil {
			return err
		}
		oidcProvider = p
		slog.Info("oidc sign-in enabled", "issuer", cfg.OIDCIssuer)
	}

	llmTimeout := ai.EffectiveTimeout(cfg.LLMTimeout)

	var enhancer handlers.Enhancer
	if cfg.LLMAPIKey != "" {
		enhancer = newEnhancer(cfg, llmTimeout)
	} else {
		slog.Warn("LLM_API_KEY not set, AI enhancement disabled")
	}

	cards := handlers.NewCards(cat, cardStore, cardCache, cfg.ShareURL)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute)
	defer authLimiter.Stop()
	enhanceLimiter := middleware.NewRateLimiter(cfg.EnhanceRateLimit, time.Minute, middleware.WithKey(middleware.IdentityKey))
	defer enhanceLimiter.Stop()

	r := router.New(sessionStore, tokens, router.Handlers{
		Templates: handlers.NewTemplates(cat),
		Cards:     cards,
		Enhance:   handlers.NewEnhance(enhancer),
		Auth:      handlers.NewAuth(userStore, sessionStore, tokens, oidcProvider, secureCookies),
		Share:     handlers.NewShare(cat, cards, renderer, cfg.ShareURL),
	}, router.Options{
		SecureCookies:  secureCookies,
		AuthLimiter:    authLimiter,
		EnhanceLimiter: enhanceLimiter,
	})

	srv := newServer(cfg.Addr(), r, llmTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

func newServer(addr string, h http.Handler, llmTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: llmTimeout + writeTimeoutSlack,
		IdleTimeout:  120 * time.Second,
	}
}

func newEnhancer(cfg *config.Config, timeout time.Duration) *ai.Enhancer {
	provider := ai.NewOpenAICompatible(ai.ProviderConfig{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
	})

	opts := []ai.EnhancerOption{ai.WithTimeout(timeout)}
	if cfg.ModerationAPIKey != "" {
		opts = append(opts, ai.WithModerator(ai.NewOpenAIModerator(cfg.ModerationAPIKey, "", nil)))
	}

	e := ai.NewEnhancer(provider, cfg.LLMModels(), opts...)
	slog.Info("ai enhancement enabled", "provider", provider.Name(), "models", e.Candidates())
	return e
}
