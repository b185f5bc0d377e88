package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"impacthub/internal/adapter/repo"
	"impacthub/internal/donation"
	"impacthub/internal/http/handlers"
	httpapi "impacthub/internal/http/httpapi"
	"impacthub/internal/impactgate"
	"impacthub/internal/infra"
	"impacthub/internal/infra/credentials"
	"impacthub/internal/infra/geoip"
	"impacthub/internal/middleware"
	"impacthub/internal/providers/impact"
	"impacthub/internal/providers/payment"
	"impacthub/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	users := repo.NewUserRepository(sqlRunner)
	projects := repo.NewProjectRepository(sqlRunner)
	comments := repo.NewCommentRepository(sqlRunner)
	supports := repo.NewSupportRepository(sqlRunner)
	donations := repo.NewDonationRepository(sqlRunner)

	// Classifier
	keys := credentials.KeyResolver{
		Static:   cfg.GeminiAPIKey,
		Store:    credentials.NewStore(sqlRunner),
		Provider: credentials.ProviderGemini,
	}
	classifier, model, err := impact.New(impact.Options{
		Strategy:  cfg.ClassifierStrategy,
		ModelPath: cfg.ClassifierModelPath,
		Logger:    logger,
		Gemini: impact.GeminiOptions{
			Keys:          keys,
			Model:         cfg.GeminiModel,
			BaseURL:       cfg.GeminiBaseURL,
			LegacyBaseURL: cfg.GeminiLegacyBaseURL,
			Timeout:       cfg.ClassifierTimeout,
			UseFallback:   cfg.GeminiUseFallback,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise impact classifier")
	}
	policy := impactgate.Policy{Enforce: cfg.ImpactCheckEnforce, FailOpen: cfg.ImpactCheckFailOpen}
	logger.Info().
		Str("strategy", cfg.ClassifierStrategy).
		Bool("enforce", policy.Enforce).
		Bool("fail_open", policy.FailOpen).
		Msg("impact check configured")

	// Payments
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		logger.Warn().Msg("razorpay credentials missing; donation orders will fail")
	}
	manager := donation.NewManager(
		payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		projects, donations,
		donation.Options{Currency: cfg.DonationCurrency, MinMinor: cfg.MinDonationMinor, Logger: logger},
	)

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer geo.Close()

	files, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise storage")
	}

	app := &handlers.App{
		Logger:     logger,
		Users:      users,
		Projects:   projects,
		Comments:   comments,
		Supports:   supports,
		Gate:       impactgate.New(classifier, projects, policy, logger),
		Classifier: classifier,
		Donations:  manager,
		Tokens: middleware.TokenIssuer{
			Secret:     cfg.JWTSecret,
			Issuer:     cfg.JWTIssuer,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
		Images: files,
		DB:     sqlRunner,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:         cfg.JWTSecret,
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitPerMin:   cfg.RateLimitPerMin,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		CountryLookup:     geo.Lookup(),
		StaticDir:         files.BasePath(),
		Logger:            logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// SIGHUP reloads the model weights in place.
	if model != nil {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		go func() {
			for range hup {
				if err := model.Reload(""); err != nil {
					logger.Error().Err(err).Msg("impact model reload failed")
					continue
				}
				logger.Info().Msg("impact model reloaded")
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
