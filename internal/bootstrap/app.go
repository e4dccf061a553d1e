package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trainee-backend/internal/converter"
	"trainee-backend/internal/letters"
	"trainee-backend/internal/profilepictures"
	"trainee-backend/internal/services/health"
	"trainee-backend/internal/shared/config"
	"trainee-backend/internal/shared/keylock"
	"trainee-backend/internal/shared/metrics"
	"trainee-backend/internal/shared/server"
	"trainee-backend/internal/shared/storage/db"
	"trainee-backend/internal/shared/storage/object"
	localstore "trainee-backend/internal/shared/storage/object/local"
	memorystore "trainee-backend/internal/shared/storage/object/memory"
	s3store "trainee-backend/internal/shared/storage/object/s3"
	"trainee-backend/internal/shared/telemetry"
	"trainee-backend/internal/trainees"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config                config.Config
	Router                *gin.Engine
	DB                    *sql.DB
	Store                 object.ObjectStore
	TraineesRepo          trainees.Repo
	TraineesService       *trainees.Service
	Converter             *converter.Client
	LetterGenerator       *letters.Generator
	ProfilePictures       *profilepictures.Service
	TraineeHandler        *trainees.Handler
	ProfilePictureHandler *profilepictures.Handler
	LetterHandler         *letters.Handler
	publicFiles           server.PublicFiles
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB}
	if err := buildStore(ctx, app); err != nil {
		return nil, err
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:                app.Config,
		Health:                health.NewService(app.DB),
		TraineeHandler:        app.TraineeHandler,
		ProfilePictureHandler: app.ProfilePictureHandler,
		LetterHandler:         app.LetterHandler,
		PublicFiles:           app.publicFiles,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

// buildStore selects the backend and wraps it with timeouts and retries.
func buildStore(ctx context.Context, app *App) error {
	cfg := app.Config
	var base object.ObjectStore
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, s3store.Options{
			Region:         cfg.AWSRegion,
			Bucket:         cfg.S3Bucket,
			Prefix:         cfg.S3Prefix,
			KMSKeyID:       cfg.SSEKMSKeyID,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
		if err != nil {
			return err
		}
		base = store
	case "memory":
		base = memorystore.New()
	default:
		store := localstore.New(cfg.LocalStoreDir)
		app.publicFiles = store
		base = store
	}

	retries := cfg.StorageRetryMax
	if retries < 0 {
		retries = 0
	}
	app.Store = object.WithRetry(base, object.RetryPolicy{
		Timeout:         cfg.StorageTimeout,
		MaxRetries:      uint64(retries),
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Notify: func(op, key string, err error, next time.Duration) {
			metrics.IncStoreRetry(op)
			telemetry.Warn("object_store.retry", map[string]any{
				"op":       op,
				"key":      key,
				"error":    err,
				"retry_in": next.String(),
			})
		},
	})
	return nil
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.TraineesRepo = &trainees.PGRepo{DB: app.DB}
	} else {
		app.TraineesRepo = trainees.NewMemoryRepo()
	}

	conv, err := converter.New(converter.Options{
		BaseURL:  app.Config.ConverterURL,
		Timeout:  app.Config.ConverterTimeout,
		RetryMax: app.Config.ConverterRetryMax,
		Author:   app.Config.LetterAuthor,
	})
	if err != nil {
		return err
	}

	app.Converter = conv
	app.TraineesService = trainees.NewService(app.TraineesRepo)
	app.LetterGenerator = &letters.Generator{Store: app.Store, Converter: conv}
	app.ProfilePictures = &profilepictures.Service{
		Repo:          app.TraineesRepo,
		Store:         app.Store,
		Resizer:       profilepictures.ImagingResizer{},
		Locks:         keylock.New(),
		PublicBaseURL: app.Config.PublicBaseURL,
		TempDir:       app.Config.UploadTmpDir,
		Sink:          telemetry.LogSink{},
	}

	app.TraineeHandler = trainees.NewHandler(app.TraineesService)
	app.ProfilePictureHandler = profilepictures.NewHandler(app.ProfilePictures, app.Config.MaxUploadBytes)
	app.LetterHandler = letters.NewHandler(app.LetterGenerator)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
