package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"syllabus-gap/internal/config"
	"syllabus-gap/internal/database"
	"syllabus-gap/internal/database/migration"
	dbpostgres "syllabus-gap/internal/database/postgres"
	"syllabus-gap/internal/delivery/http/handler"
	"syllabus-gap/internal/infrastructure/cache"
	"syllabus-gap/internal/infrastructure/persistence/sqlite"
	"syllabus-gap/internal/infrastructure/websearch"
	"syllabus-gap/internal/llm"
	"syllabus-gap/internal/pipeline"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/prompts"
	"syllabus-gap/internal/repository"
	"syllabus-gap/internal/scraper"
	"syllabus-gap/internal/search"
	"syllabus-gap/internal/usecase"
	"syllabus-gap/internal/ws"

	"gorm.io/gorm"
)

type Container struct {
	Config config.Config
	Log    *logger.Logger

	DB    database.DB
	Local *gorm.DB
	Cache *cache.Redis
	Hub   *ws.Hub

	Conversations repository.ConversationRepository
	Sources       repository.JobSourceRepository
	Topics        repository.JobTopicRepository

	Pipeline *pipeline.SearchPipeline
	Search   *usecase.Search
	Cleanup  *usecase.ConversationCleanup
}

func NewContainer(cfg config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.Nop()
	}
	c := &Container{Config: cfg, Log: log}

	if err := c.openStorage(); err != nil {
		return nil, err
	}

	completer, err := llm.NewClient(cfg.LLM, prompts.Guardrail())
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Cache = cache.NewRedis(cfg.Redis, log)
	searcher := search.NewCachedSearcher(
		websearch.NewTavilyClient(cfg.Search, log),
		c.Cache,
		cfg.Redis.TTL,
		log,
	)

	c.Hub = ws.NewHub(log)

	c.Pipeline = pipeline.NewSearchPipeline(
		completer,
		searcher,
		newFetcher(cfg.Fetch),
		c.Conversations,
		c.Sources,
		c.Topics,
		ws.NewStageNotifier(c.Hub),
		pipeline.SearchPipelineParams{
			CallBudget:   cfg.LLM.CallBudget,
			MaxResults:   cfg.Search.MaxResults,
			TopCompanies: cfg.Pipeline.TopCompanies,
		},
		log,
	)
	c.Search = usecase.NewSearchUsecase(c.Pipeline, c.Conversations, c.Sources, c.Topics, c.Cache, log)
	c.Cleanup = usecase.NewConversationCleanup(c.Conversations, cfg.Cleanup.RetentionDays, log).WithCache(c.Cache)

	return c, nil
}

func (c *Container) openStorage() error {
	cfg := c.Config.Database
	if cfg.UsesSQLite() {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		c.Local = db
		c.Conversations = sqlite.NewConversationStore(db)
		c.Sources = sqlite.NewJobSourceStore(db)
		c.Topics = sqlite.NewJobTopicStore(db)
		c.Log.Info("storage ready", "driver", config.DriverSQLite, "path", cfg.SQLitePath)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	if err := (migration.Runner{}).Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	c.DB = db
	c.Conversations = repository.NewPostgresConversationRepository(db)
	c.Sources = repository.NewPostgresJobSourceRepository(db)
	c.Topics = repository.NewPostgresJobTopicRepository(db)
	c.Log.Info("storage ready", "driver", config.DriverPostgres, "host", cfg.DBHost, "db", cfg.DBName)
	return nil
}

func newFetcher(cfg config.FetchConfig) scraper.PageFetcher {
	if cfg.Mode == config.FetchModeHeadless {
		return scraper.NewHeadlessFetcher(cfg.Timeout, cfg.UserAgent)
	}
	return scraper.NewHTTPFetcher(cfg.Timeout, cfg.UserAgent)
}

// StoragePinger reports database health for whichever driver is active.
func (c *Container) StoragePinger() handler.Pinger {
	if c.Local != nil {
		return gormPinger{db: c.Local}
	}
	return c.DB
}

type gormPinger struct {
	db *gorm.DB
}

func (p gormPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.Local != nil {
		errs = append(errs, sqlite.Close(c.Local))
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
