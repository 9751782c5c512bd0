package bootstrap

import (
	"context"
	"log"

	"ai-affairs-gateway/internal/config"
	"ai-affairs-gateway/internal/controller"
	"ai-affairs-gateway/internal/pkg/logger"
	"ai-affairs-gateway/internal/repository/implementation"
	"ai-affairs-gateway/internal/service"
	"ai-affairs-gateway/pkg/callback"
	"ai-affairs-gateway/pkg/dify"
	"ai-affairs-gateway/pkg/keyword"
	"ai-affairs-gateway/pkg/ragflow"
	"ai-affairs-gateway/pkg/reference"

	pktNats "ai-affairs-gateway/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController       *controller.ChatController
	CompletionController *controller.CompletionController
	LogReviewController  *controller.LogReviewController
	StreamDemoController *controller.StreamDemoController

	// Held so main can close the bus connection on shutdown.
	NatsPublisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS is optional infrastructure: turns still complete when the bus is
	// down, events are just not emitted.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 3. Upstream Clients
	ragClient := ragflow.NewClient(cfg.Ragflow.BaseURL, cfg.Ragflow.APIKey, cfg.Ragflow.ChatID)
	extractor := keyword.NewExtractor(cfg.Keyword.BaseURL, cfg.Keyword.APIKey, cfg.Keyword.Model, sysLogger)
	difyClient := dify.NewClient(cfg.Dify.BaseURL, cfg.Dify.APIKey)

	// 4. Repositories & Resolvers
	filesRepo := implementation.NewAffairsFileRepository(db)
	resolver := reference.NewResolver(filesRepo, sysLogger)

	// 5. Callback Dispatch
	dispatcher := callback.NewDispatcher(cfg.Callback.Enabled, cfg.Callback.URL, pubSub, sysLogger)
	if err := dispatcher.Start(context.Background()); err != nil {
		log.Panicf("Unable to start callback dispatcher: %v", err)
	}

	// 6. Services
	var bus service.EventPublisher
	if natsPub != nil {
		bus = natsPub
	}
	chatService := service.NewChatService(ragClient, extractor, resolver, dispatcher, bus, sysLogger)
	logReviewService := service.NewLogReviewService(difyClient, sysLogger)

	// 7. Controllers
	return &Container{
		ChatController:       controller.NewChatController(chatService),
		CompletionController: controller.NewCompletionController(chatService),
		LogReviewController:  controller.NewLogReviewController(logReviewService),
		StreamDemoController: controller.NewStreamDemoController(),
		NatsPublisher:        natsPub,
	}
}
