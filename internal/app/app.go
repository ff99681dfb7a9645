package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zolani/khusela/internal/cache"
	"github.com/zolani/khusela/internal/config"
	"github.com/zolani/khusela/internal/env"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/file"
	"github.com/zolani/khusela/internal/flow"
	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/kyc"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/smtp"
	"github.com/zolani/khusela/internal/stream"
	"github.com/zolani/khusela/internal/verify"
	"github.com/joho/godotenv"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       smtp.MailerInterface
	WG           sync.WaitGroup
	Sessions     *cache.SessionStore
	Flows        *flow.Store
	KycStore     *kyc.Store
	Kafka        *stream.KafkaStream
	FileUploader *file.FileUploader

	errorHandler *errHandler.ErrorRepository
	helper       *helper.HelperRepository
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file
	// Default values are provided for these items and these should strictly be values for development mode only
	// make sure no production-level value is exposed as default value here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	cfg.Redis.Addr = env.GetString("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Db = env.GetInt("REDIS_DB", 0)

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "Khusela <no_reply@khusela.co.za>")

	cfg.Verification.BaseURL = env.GetString("VERIFICATION_BASE_URL", "http://localhost:8900")
	cfg.Verification.ApiKey = env.GetString("VERIFICATION_API_KEY", "")

	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	cfg.FileUploader.ApiKey = env.GetString("CLOUDINARY_API_KEY", "")
	cfg.FileUploader.CloudName = env.GetString("CLOUDINARY_CLOUD_NAME", "")
	cfg.FileUploader.ApiSecret = env.GetString("CLOUDINARY_API_SECRET", "")
	cfg.FileUploader.Folder = env.GetString("CLOUDINARY_FOLDER", "khusela/documents")

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	sessions := cache.New(cfg.Redis.Addr, cfg.Redis.Db, 24*time.Hour)

	app := &Application{
		Config:   cfg,
		DB:       db,
		Logger:   logger,
		Mailer:   mailer,
		Sessions: sessions,
		Kafka:    stream.New(cfg.KafkaServers),
	}

	app.errorHandler = errHandler.New(cfg.Notifications.Email, cfg.BaseURL, mailer, logger)
	app.helper = helper.New(&cfg.BaseURL, &app.WG, app.errorHandler)

	app.FileUploader = file.New(cfg.FileUploader.CloudName, cfg.FileUploader.ApiKey, cfg.FileUploader.ApiSecret, cfg.FileUploader.Folder)

	verifier := verify.NewProvider(cfg.Verification.BaseURL, cfg.Verification.ApiKey, app.FileUploader)

	app.Flows = flow.NewStore(sessions, logger)
	app.KycStore = kyc.NewStore(verifier, logger)

	return app, nil
}

// Helper exposes the background-task helper for collaborators wired up
// outside this package, such as the kafka workers.
func (app *Application) Helper() *helper.HelperRepository {
	return app.helper
}
