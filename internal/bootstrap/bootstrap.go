// Package bootstrap wires the quiz pipeline from configuration for the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"quizforge/internal/adapter"
	"quizforge/internal/adapter/extract"
	"quizforge/internal/adapter/genlog"
	"quizforge/internal/adapter/llm"
	"quizforge/internal/cache"
	"quizforge/internal/config"
	"quizforge/internal/database"
	"quizforge/internal/domain"
	"quizforge/internal/logger"
	"quizforge/internal/prompt"
	"quizforge/internal/repository"
	"quizforge/internal/service"
	"quizforge/internal/validation"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Options tunes what Build connects to.
type Options struct {
	// InMemorySessions skips Redis even when redis.address is set.
	InMemorySessions bool
}

// Components is the wired pipeline. Close releases its connections.
type Components struct {
	Service service.QuizService
	// GenLogs is nil unless genlog.db.driver is set.
	GenLogs repository.GenerationLogRepository

	closers []func() error
}

// Close releases connections in reverse order of creation.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build constructs every adapter named by cfg and the quiz service on top of them.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Components, error) {
	log := logger.Get()
	c := &Components{}

	model, err := llm.NewQuizModel(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	log.Info("LLM backend initialized", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))

	ocr, err := extract.NewOCRService(ctx, cfg.OCR)
	if err != nil {
		log.Warn("OCR backend unavailable, image OCR mode will fail", zap.String("provider", cfg.OCR.Provider), zap.Error(err))
		ocr = extract.Unavailable(err)
	}

	sessionCache, err := c.sessionCache(ctx, cfg.Redis, opts)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	genLog, err := c.generationLogger(ctx, cfg.GenLog)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Service = service.NewQuizService(service.QuizServiceDeps{
		Model:     model,
		PDF:       extract.NewPDFTextExtractor(),
		OCR:       ocr,
		Sessions:  service.NewSessionStore(sessionCache, cfg.Session.TTL),
		GenLog:    genLog,
		Validator: validation.NewValidator(cfg.Quiz, cfg.LLM),
		Prompts:   prompt.NewBuilder(cfg.Prompt.MaxContentChars),
	}, cfg.LLM)
	return c, nil
}

func (c *Components) sessionCache(ctx context.Context, redisCfg config.RedisConfig, opts Options) (domain.Cache, error) {
	if opts.InMemorySessions || redisCfg.Address == "" {
		logger.Get().Info("Using in-memory session store")
		return adapter.NewMemoryCacheAdapter(), nil
	}

	client, err := cache.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, client.Close)
	logger.Get().Info("Successfully connected to Redis", zap.String("address", redisCfg.Address))
	return adapter.NewRedisCacheAdapter(client), nil
}

// generationLogger returns nil when generation logging is disabled.
func (c *Components) generationLogger(ctx context.Context, cfg config.GenLogConfig) (domain.GenerationLogger, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var sinks []genlog.Sink
	if cfg.Dir != "" {
		sinks = append(sinks, genlog.Sink{Name: "file", Logger: genlog.NewFileSink(afero.NewOsFs(), cfg.Dir)})
	}

	if cfg.DB.Driver != "" {
		db, err := database.Connect(cfg.DB)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)
		// The embedded SQLite file is created on first use; Oracle schemas go through cmd/migrate.
		if cfg.DB.Driver == database.DriverSQLite {
			if err := database.RunMigrations(ctx, db); err != nil {
				return nil, err
			}
		}
		c.GenLogs = repository.NewSQLXGenerationLogRepository(db)
		sinks = append(sinks, genlog.Sink{Name: "db", Logger: c.GenLogs})
	}

	if cfg.S3.Bucket != "" {
		client, err := genlog.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("generation log archive: %w", err)
		}
		sinks = append(sinks, genlog.Sink{Name: "s3", Logger: genlog.NewS3Sink(client, cfg.S3.Bucket, cfg.S3.Prefix)})
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name)
	}
	logger.Get().Info("Generation log enabled", zap.Strings("sinks", names))
	return genlog.NewMultiLogger(sinks...), nil
}
