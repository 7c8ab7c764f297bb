package bootstrap

import (
	"context"
	"log"

	"ai-storybook-be/internal/config"
	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/controller"
	"ai-storybook-be/internal/handler"
	"ai-storybook-be/internal/pkg/logger"
	"ai-storybook-be/internal/pkg/mailer"
	"ai-storybook-be/internal/repository/memory"
	"ai-storybook-be/internal/repository/unitofwork"
	"ai-storybook-be/internal/service"
	"ai-storybook-be/internal/websocket"
	"ai-storybook-be/pkg/generation"
	"ai-storybook-be/pkg/generation/remote"
	pktNats "ai-storybook-be/pkg/nats"
	"ai-storybook-be/pkg/storyteller"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController   controller.ISessionController
	StorybookController controller.IStorybookController
	TemplateController  controller.ITemplateController

	// Background Services (Exposed for main.go to run)
	CascadeService service.ICascadeService
	SweeperService service.ISweeperService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
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

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/progress.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Generation Pipeline
	// Every stage is handled by the generation gateway; each stage name maps
	// to its own endpoint.
	registry := generation.NewRegistry()
	stages := []string{
		constant.StagePages,
		constant.StageImages,
		constant.StageAudio,
		constant.StageFinalize,
		constant.StagePrintable,
	}
	for _, stage := range stages {
		registry.Register(stage, remote.NewCollaborator(cfg.Generation.GatewayBaseURL, stage, cfg.Generation.StageTimeout))
	}

	backoff := generation.NewBackoffPolicy(cfg.Generation.BackoffBase, cfg.Generation.BackoffCap)

	publisherService := service.NewPublisherService(pubSub, cfg.Generation.StageEventsTopic)
	generationService := service.NewGenerationService(
		uowFactory,
		registry,
		backoff,
		publisherService,
		natsPub,
		sysLogger,
		cfg.Generation.StageTimeout,
		cfg.Generation.PipelineVersion,
	)

	cascadeService := service.NewCascadeService(
		pubSub,
		cfg.Generation.StageEventsTopic,
		generationService,
		sysLogger,
	)
	sweeperService := service.NewSweeperService(
		uowFactory,
		generationService,
		sysLogger,
		cfg.Generation.SweepInterval,
	)

	// 4. Narrative Session Services
	templateCache := memory.NewTemplateCache()
	teller := storyteller.NewHTTPStoryTeller(cfg.Generation.NarratorBaseURL)
	sessionService := service.NewSessionService(uowFactory, templateCache, teller, natsPub, sysLogger)
	templateService := service.NewTemplateService(uowFactory, templateCache)

	// 5. Notifier (events -> websocket + mail)
	notifierService := service.NewNotifierService(natsSub, wsHub, emailService, wsLogger)
	if natsSub != nil {
		go notifierService.Start()
	}

	progressHandler := handler.NewProgressHandler(wsHub, wsLogger)

	return &Container{
		ProgressHandler:     progressHandler,
		WebSocketHub:        wsHub,
		SessionController:   controller.NewSessionController(sessionService),
		StorybookController: controller.NewStorybookController(generationService),
		TemplateController:  controller.NewTemplateController(templateService),

		CascadeService: cascadeService,
		SweeperService: sweeperService,
	}
}
