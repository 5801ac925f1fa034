package container

import (
	"fmt"

	"datachat/adapters/llm"
	"datachat/adapters/postgres"
	"datachat/adapters/storage"
	"datachat/adapters/tabular"
	"datachat/app"
	"datachat/internal"
	"datachat/internal/config"
	"datachat/internal/dataframe"
	"datachat/internal/ingest"
	"datachat/internal/query"
	"datachat/internal/upload"
	"datachat/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	UserRepo     ports.UserRepository
	DatasetRepo  ports.DatasetRepository
	SessionRepo  ports.SessionRepository
	QueryLogRepo ports.QueryLogRepository

	// Adapters
	Storage ports.FileStorage
	Reader  ports.TableReader
	Client  ports.LLMClient
	Engine  ports.AnalysisEngine

	// Core components
	Validator *upload.Validator
	Ingestor  *ingest.Ingestor
	Cache     *dataframe.Cache
	Executor  *query.Executor

	// Services
	UploadService *app.UploadService
	ChatService   *app.ChatService
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}

	return &Container{
		Config: cfg,
		Logger: logger,
	}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.initRepositories()

	if err := c.initAdapters(); err != nil {
		return fmt.Errorf("failed to initialize adapters: %w", err)
	}

	c.initServices()

	c.Logger.Info("[container] initialized with database connection")
	return nil
}

func (c *Container) initRepositories() {
	c.UserRepo = postgres.NewUserRepository(c.DB)
	c.DatasetRepo = postgres.NewDatasetRepository(c.DB)
	c.SessionRepo = postgres.NewSessionRepository(c.DB)
	c.QueryLogRepo = postgres.NewQueryLogRepository(c.DB)
}

func (c *Container) initAdapters() error {
	store, err := storage.NewLocalFileStorage(c.Config.Upload.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}
	c.Storage = store
	c.Reader = tabular.NewReader()

	client, err := llm.NewOpenAIClient(
		c.Config.AI.APIKey,
		c.Config.AI.BaseURL,
		c.Config.AI.Timeout,
		c.Config.AI.Temperature,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	c.Client = client
	c.Engine = llm.NewEngine(client, c.Config.AI.Model, c.Config.AI.MaxTokens)
	return nil
}

func (c *Container) initServices() {
	c.Validator = upload.NewValidator(c.Config.Upload.MaxFileSize)
	c.Ingestor = ingest.NewIngestor(c.DatasetRepo, c.Reader, c.Logger)
	c.Cache = dataframe.NewCache(c.Reader, c.Config.Cache.Capacity)
	c.Executor = query.NewExecutor(
		c.Engine,
		c.Cache,
		c.DatasetRepo,
		c.QueryLogRepo,
		c.Logger,
		c.Config.Query.ContextWindow,
		c.Config.AI.Timeout,
	)

	c.UploadService = app.NewUploadService(
		c.Validator,
		c.Storage,
		c.DatasetRepo,
		c.SessionRepo,
		c.Ingestor,
		c.Logger,
		c.Config.Upload.MaxNameLength,
	)
	c.ChatService = app.NewChatService(
		c.SessionRepo,
		c.QueryLogRepo,
		c.Executor,
		c.Logger,
		c.Config.Query.MaxPromptLength,
	)
}

// Close releases held resources
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
