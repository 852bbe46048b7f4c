package app

import (
	"SkillMarket/internal/app/server"
	"SkillMarket/internal/config"
	"SkillMarket/internal/delivery/http"
	"SkillMarket/internal/events"
	"SkillMarket/internal/provider/paystack"
	"SkillMarket/internal/service"
	"SkillMarket/internal/service/auth"
	"SkillMarket/internal/service/course/query"
	"SkillMarket/internal/service/enrollment"
	"SkillMarket/internal/service/enrollment/ratelimit"
	"SkillMarket/internal/storage/elastic"
	"SkillMarket/internal/storage/minio_storage"
	"SkillMarket/internal/storage/postgres"
	"SkillMarket/pkg/logger"
	"SkillMarket/pkg/retry"
	"context"
	"os"
	"os/signal"
	"syscall"
)

func Run(cfg *config.Config) {

	log := logger.New(cfg.Env)
	log.Info("Starting with Env: " + cfg.Env)

	pg, err := postgres.NewPostgresPool(cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
	if err != nil {
		log.FatalErr("error connecting to database", err)
	}
	defer pg.Close()

	esClient, err := elastic.NewElasticClient(cfg.ES.Password, cfg.ES.Hosts)
	if err != nil {
		log.FatalErr("error connecting to elasticsearch", err)
	}
	searchRepo := elastic.NewCatalogSearchRepository(esClient, cfg.ES.Index)
	if err := searchRepo.EnsureIndex(context.Background()); err != nil {
		log.FatalErr("error ensuring catalog index", err)
	}

	covers, err := minio_storage.NewCoverStorage(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Minio.Bucket, cfg.Minio.PresignTTL)
	if err != nil {
		log.FatalErr("error connecting to object storage", err)
	}

	tokenRepo := postgres.NewTokensPostgres(pg.Pool)
	userRepo := postgres.NewUserPostgres(pg.Pool)
	courseRepo := postgres.NewCoursePostgres(pg.Pool)
	enrollmentsRepo := postgres.NewEnrollmentsPostgres(pg.Pool)
	paymentsRepo := postgres.NewPaymentsPostgres(pg.Pool)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, "skillmarket", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	authService := auth.NewAuthService(log, jwtManager, userRepo, tokenRepo)

	queries := query.NewCourseQueryService(log, courseRepo, covers, userRepo, searchRepo, enrollmentsRepo)

	verifier := paystack.NewClient(log, cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout)
	limiter := ratelimit.New(cfg.RateLimit.Attempts, cfg.RateLimit.Window, cfg.RateLimit.BlockFor)
	exec := retry.New(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay)
	coordinator := enrollment.NewCoordinator(log, paymentsRepo)
	enrollmentCfg := enrollment.Config{
		Provider:          cfg.Payments.Provider,
		HomeCurrency:      cfg.Payments.HomeCurrency,
		AllowedCurrencies: cfg.Payments.AllowedCurrencies,
		AmountTolerance:   cfg.Payments.AmountTolerance,
	}

	var enrollments *enrollment.Service
	if cfg.Kafka.Enabled {
		producer := events.NewProducer(log, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		enrollments = enrollment.NewService(log, enrollmentCfg, limiter, courseRepo, enrollmentsRepo, verifier, coordinator, exec, producer)
	} else {
		enrollments = enrollment.NewService(log, enrollmentCfg, limiter, courseRepo, enrollmentsRepo, verifier, coordinator, exec, nil)
	}

	u := service.Collection{
		AuthService:   authService,
		CourseQueries: queries,
		Enrollments:   enrollments,
	}

	r := http.InitRoutes(log, u)

	srv := server.New(cfg.HTTPServer.Address, cfg.HTTPServer.Timeout, cfg.HTTPServer.IdleTimeout, r)
	srv.Start()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("app signal: " + s.String())
	case err := <-srv.Notify():
		log.ErrorErr("server error", err)
	}
	if err := srv.Shutdown(); err != nil {
		log.ErrorErr("server shutdown error", err)
	}
}
