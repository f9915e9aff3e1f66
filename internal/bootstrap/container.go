package bootstrap

import (
	"context"
	"log"
	"time"

	"line-intake-bot/internal/config"
	"line-intake-bot/internal/controller"
	"line-intake-bot/internal/pkg/logger"
	"line-intake-bot/internal/pkg/mailer"
	"line-intake-bot/internal/repository"
	"line-intake-bot/internal/repository/implementation"
	"line-intake-bot/internal/repository/memory"
	"line-intake-bot/internal/repository/redisrepo"
	"line-intake-bot/internal/service"
	"line-intake-bot/pkg/line"
	"line-intake-bot/pkg/sheets"
	"line-intake-bot/pkg/survey"

	pktNats "line-intake-bot/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// submissionTopic is the in-process queue topic for queued delivery.
const submissionTopic = "intake.submissions"

type Container struct {
	// Controllers
	WebhookController controller.IWebhookController
	AdminController   controller.IAdminController

	// Background Services (Exposed for main.go to run)
	DeliveryService service.IDeliveryService

	// LineChannelSecret signs webhook bodies; the server wires it into
	// the signature middleware.
	LineChannelSecret string
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" && cfg.SMTP.NotifyTo != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
		)
	}

	// 2. Session Storage
	ttl := time.Duration(cfg.Survey.SessionTTLMinutes) * time.Minute
	var sessionRepo survey.Repository
	if cfg.Survey.SessionStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionRepo = redisrepo.NewSessionRepository(rdb, ttl)
	} else {
		sessionRepo = memory.NewSessionRepository(ttl)
	}

	// 3. Infrastructure
	var eventsPub service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventsPub = natsPub
		}
	}

	var archive repository.SubmissionRepository
	if db != nil {
		archive = implementation.NewSubmissionRepository(db)
	}

	lineClient := line.NewClient(cfg.Line.ChannelAccessToken)
	sheetClient := sheets.NewClient(cfg.Sheet.EndpointURL)

	// 4. Survey Engine
	pickers := survey.PickerConfig{
		DateWindow: cfg.Survey.DateWindow,
		TimeFrom:   cfg.Survey.TimeFrom,
		TimeTo:     cfg.Survey.TimeTo,
	}
	engine := survey.NewEngine(
		survey.DefaultIntakeCatalog(),
		sessionRepo,
		service.NewLineMediaStore(lineClient),
		survey.WithPickers(pickers),
		survey.WithRestartKeywords(cfg.Survey.RestartKeywords...),
	)
	renderer := survey.NewRenderer(pickers, time.Now)

	// 5. Submission Delivery
	var sink service.SubmissionSink
	var deliverySvc service.IDeliveryService
	if cfg.Sheet.SubmitMode == "queue" {
		watermillLogger := watermill.NewStdLogger(false, false)
		pubSub := gochannel.NewGoChannel(
			gochannel.Config{},
			watermillLogger,
		)
		deliverySvc = service.NewDeliveryService(
			pubSub,
			submissionTopic,
			sheetClient,
			archive,
			eventsPub,
			cfg.Sheet.MaxAttempts,
			sysLogger,
		)
		sink = deliverySvc
	} else {
		sink = service.NewSheetSink(sheetClient)
	}

	// 6. Services
	intakeService := service.NewIntakeService(
		engine,
		renderer,
		lineClient,
		sink,
		archive,
		eventsPub,
		emailService,
		cfg.SMTP.NotifyTo,
		sysLogger,
	)
	adminService := service.NewAdminService(sessionRepo, archive, sheetClient)

	// 7. Controllers
	return &Container{
		WebhookController: controller.NewWebhookController(intakeService),
		AdminController:   controller.NewAdminController(adminService),
		DeliveryService:   deliverySvc,
		LineChannelSecret: cfg.Line.ChannelSecret,
	}
}
