package main

import (
	"context"
	"log"

	"datachat/internal"
	"datachat/internal/config"
	"datachat/internal/container"
	"datachat/internal/errors"
	"datachat/internal/migration"
	"datachat/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and brings the schema up to date
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Close()

	if err := appContainer.InitWithDatabase(db); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	server := ui.NewServer(
		appConfig.Server.GinMode,
		appContainer.UploadService,
		appContainer.ChatService,
		appContainer.UserRepo,
		logger,
	)

	addr := ":" + appConfig.Server.Port
	logger.Info("[main] listening on %s", addr)
	if err := server.Run(addr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
