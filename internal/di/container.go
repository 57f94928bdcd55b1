package di

import (
	"context"

	"github.com/GoArmGo/PhotoShare/internal/adapter/imagefx"
	"github.com/GoArmGo/PhotoShare/internal/adapter/storage/minio"
	"github.com/GoArmGo/PhotoShare/internal/app"
	"github.com/GoArmGo/PhotoShare/internal/auth"
	"github.com/GoArmGo/PhotoShare/internal/config"
	"github.com/GoArmGo/PhotoShare/internal/core/ports"
	"github.com/GoArmGo/PhotoShare/internal/database/client"
	"github.com/GoArmGo/PhotoShare/internal/database/postgres"
	"github.com/GoArmGo/PhotoShare/internal/database/storage"
	"github.com/GoArmGo/PhotoShare/internal/handler"
	"github.com/GoArmGo/PhotoShare/internal/logger"
	"github.com/GoArmGo/PhotoShare/internal/rabbitmq"
	"github.com/GoArmGo/PhotoShare/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context) (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogCfg := logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}
	slogger := logger.NewSlog(slogCfg)

	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	var closers []func() error
	fail := func(err error) (*app.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// 2. Инициализация клиента бд, миграции применяются здесь же
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, dbClient.Close)

	// 3. Инициализация хранилищ
	tagRegistry := storage.NewTagRegistry(slogger)
	photoStorage := storage.NewPhotoStore(dbClient.DB, tagRegistry, slogger)
	commentStorage := storage.NewCommentStore(dbClient.DB, slogger)
	listingEngine := storage.NewListingEngine(dbClient.DB, slogger)

	// справочник пользователей на postgres обслуживает gorm поверх того же пула
	var userDirectory ports.UserDirectory
	if dbClient.Driver == client.DriverPostgres {
		gormDB, err := postgres.OpenGorm(dbClient.DB.DB, slogger)
		if err != nil {
			return fail(err)
		}
		userDirectory = postgres.NewGormUserStorage(gormDB, slogger)
	} else {
		userDirectory = storage.NewUserStorage(dbClient.DB, slogger)
	}

	// 4. Инициализация клиентов внешних сервисов
	fileStorage, err := minio.NewMinioClient(ctx, cfg, slogger) // S3 / MinIO адаптер
	if err != nil {
		return fail(err)
	}

	// 5. Инициализация RabbitMQ клиента, он же publisher и consumer
	rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() error { rabbitMQClient.Close(); return nil })

	// 6. Кэш ролей в Redis, если настроен
	var principalCache auth.PrincipalCache
	var roleInvalidator usecase.RoleInvalidator
	if cfg.RedisURL != "" {
		redisClient, err := auth.NewRedisClient(ctx, cfg.RedisURL, slogger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, redisClient.Close)

		cache := auth.NewRedisPrincipalCache(redisClient, cfg.PrincipalCacheTTL)
		principalCache = cache
		roleInvalidator = cache
	} else {
		slogger.Info("REDIS_URL not set, principal cache disabled")
	}

	// 7. Инициализация бизнес-логики (usecases)
	transformer := imagefx.NewTransformer(slogger)
	photoUseCase := usecase.NewPhotoUseCase(
		photoStorage,
		listingEngine,
		fileStorage,
		rabbitMQClient,
		transformer,
		userDirectory,
		slogger,
	)
	commentUseCase := usecase.NewCommentUseCase(commentStorage, slogger)
	userUseCase := usecase.NewUserUseCase(userDirectory, fileStorage, transformer, roleInvalidator, slogger)

	authenticator := auth.NewAuthenticator(
		auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		userDirectory,
		principalCache,
		slogger,
	)

	// 8. Лимитер загрузок: не больше UploadConcurrency параллельных загрузок
	uploadLimiter := make(chan struct{}, cfg.UploadConcurrency)
	rateLimiter := handler.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, slogger)

	router := handler.NewRouter(handler.RouterDeps{
		Photos:         handler.NewPhotoHandler(photoUseCase, uploadLimiter, cfg.MaxUploadBytes, slogger),
		Comments:       handler.NewCommentHandler(commentUseCase, slogger),
		Users:          handler.NewUserHandler(userUseCase, uploadLimiter, cfg.MaxUploadBytes, slogger),
		Authenticator:  authenticator,
		RateLimiter:    rateLimiter,
		DB:             dbClient,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         slogger,
	})

	// 9. Сборка итогового приложения
	application := app.NewApp(
		cfg,
		slogger,
		router,
		rateLimiter,
		photoUseCase,
		rabbitMQClient,
		closers...,
	)

	slogger.Info("all dependencies initialized", "database_driver", dbClient.Driver)
	return application, nil
}
