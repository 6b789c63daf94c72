package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/batch"
	"resume-ingest/internal/candidates"
	"resume-ingest/internal/extract"
	"resume-ingest/internal/keypool"
	"resume-ingest/internal/llm/failover"
	"resume-ingest/internal/llm/groq"
	"resume-ingest/internal/normalize"
	"resume-ingest/internal/services/health"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/server"
	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/storage/db"
	"resume-ingest/internal/shared/storage/object"
	localstore "resume-ingest/internal/shared/storage/object/local"
	s3store "resume-ingest/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Outputs           object.Store
	Candidates        *candidates.Service
	Pipeline          *batch.Pipeline
	CandidatesHandler *candidates.Handler
	BatchHandler      *batch.Handler
}

// Build prepares the storage side: database, record repository and output
// store. The completion pipeline is added by BuildPipeline.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, err
	}

	var repo candidates.Repo
	if sqlDB != nil {
		repo = &candidates.SQLRepo{DB: sqlDB, Dialect: dialect}
	} else {
		repo = candidates.NewMemoryRepo()
	}
	svc := candidates.NewService(repo)

	return &App{
		Config:            cfg,
		DB:                sqlDB,
		Outputs:           store,
		Candidates:        svc,
		CandidatesHandler: candidates.NewHandler(svc),
	}, nil
}

// BuildPipeline validates the configured credentials, selects an active one
// and assembles the batch pipeline on top of the storage side.
func (a *App) BuildPipeline(ctx context.Context) error {
	cfg := a.Config
	transport := groq.NewClient(
		groq.WithBaseURL(cfg.LLMBaseURL),
		groq.WithTimeout(cfg.LLMTimeout),
		groq.WithProbeModel(cfg.LLMProbeModel),
	)

	pool, err := keypool.New(cfg.APIKeys, transport)
	if err != nil {
		return err
	}
	client, err := failover.New(ctx, pool, transport, failover.WithBackoff(cfg.LLMBackoff))
	if err != nil {
		return err
	}

	norm := normalize.New(client)
	if cfg.LLMModel != "" {
		norm.Model = cfg.LLMModel
	}
	if cfg.LLMMaxTokens > 0 {
		norm.MaxTokens = cfg.LLMMaxTokens
	}
	norm.Temperature = cfg.LLMTemperature

	a.Pipeline = &batch.Pipeline{
		Processor: &batch.Processor{
			Extract:    extract.Extract,
			Normalizer: norm,
			Outputs:    a.Outputs,
		},
		Candidates: a.Candidates,
	}
	a.BatchHandler = batch.NewHandler(a.Pipeline)
	return nil
}

// Routes mounts the handlers built so far on a new router.
func (a *App) Routes() *gin.Engine {
	a.Router = server.NewRouter(server.RouterDeps{
		Config:            a.Config,
		CandidatesHandler: a.CandidatesHandler,
		BatchHandler:      a.BatchHandler,
		Health:            health.NewService(a.DB, func() bool { return a.Pipeline != nil }),
		RateLimiter:       middleware.NewRateLimiter(nil),
	})
	return a.Router
}

// Close releases the database connection.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, db.Dialect, error) {
	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, "", err
	}
	dsn := cfg.DSN()
	if strings.TrimSpace(dsn) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: no database configured; using in-memory repository")
			return nil, dialect, nil
		}
		return nil, "", fmt.Errorf("%s connection string is required", dialect)
	}

	sqlDB, err := db.Connect(ctx, dialect, dsn, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repository: %v", err)
			return nil, dialect, nil
		}
		return nil, "", err
	}
	if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
		sqlDB.Close()
		return nil, "", fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, dialect, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.OutputStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OUTPUT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.OutputDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
