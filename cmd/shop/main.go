package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	adapthttp "github.com/namratazipy/testappios/internal/adapter/http"
	"github.com/namratazipy/testappios/internal/adapter/memory"
	"github.com/namratazipy/testappios/internal/adapter/postgres"
	"github.com/namratazipy/testappios/internal/app"
	"github.com/namratazipy/testappios/internal/domain"
)

func main() {
	addr := env("ADDR", ":8080")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	mem := memory.NewSeeded()

	var source domain.CatalogSource = mem
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		db, err := postgres.Open(connStr)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		defer func() { _ = db.Close() }()
		if err := db.Seed(context.Background(), memory.SeedProducts()); err != nil {
			log.Fatalf("db seed: %v", err)
		}
		source = db
	}

	delay := app.NewTimerDelayer()
	catalogSvc := app.NewCatalogService(source, delay)
	cartSvc := app.NewCartService(mem, catalogSvc)
	checkoutSvc := app.NewCheckoutService(cartSvc)
	authSvc := app.NewAuthService(credentialVerifier(mem), mem.NewSessionRepo(), delay)

	if err := <-catalogSvc.Load(context.Background()); err != nil {
		// The store keeps the error as state; serving still makes sense.
		log.Printf("catalog load: %v", err)
	}

	srv := adapthttp.New(catalogSvc, cartSvc, checkoutSvc, authSvc, logger)
	if cfg, err := oidcFromEnv(context.Background()); err != nil {
		log.Fatalf("oidc: %v", err)
	} else if cfg.Enabled {
		srv.WithOIDC(cfg)
	}

	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// credentialVerifier picks the login policy: any non-empty credentials by
// default, or a bcrypt check against a seeded user when one is configured.
func credentialVerifier(users domain.UserRepository) domain.CredentialVerifier {
	email := os.Getenv("SHOP_USER_EMAIL")
	password := os.Getenv("SHOP_USER_PASSWORD")
	if email == "" || password == "" {
		return app.NonEmptyVerifier{}
	}
	v := app.NewPasswordVerifier(users)
	if err := v.SeedUser(context.Background(), email, password); err != nil {
		log.Fatalf("seed user: %v", err)
	}
	return v
}

func oidcFromEnv(ctx context.Context) (adapthttp.OIDCConfig, error) {
	issuer := os.Getenv("OIDC_ISSUER")
	if issuer == "" {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
