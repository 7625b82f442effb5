package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/db"
	"chat-relay/internal/handlers"
	"chat-relay/internal/middleware"
	"chat-relay/internal/observability"
	"chat-relay/internal/relay"
	"chat-relay/internal/repositories"
	"chat-relay/internal/telemetry"
	"chat-relay/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.Debug)
	defer logger.Sync()
	sugar := logger.Sugar()

	database, err := db.Connect(sugar, cfg.DBDSN)
	if err != nil {
		sugar.Fatalw("failed to connect to db", "error", err)
	}

	publisher := observability.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, sugar)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, "audit.chat_relay", "chat-relay", "production", sugar)
	sugar.Infow("event publisher ready", "mode", observability.Mode(publisher))

	sessionRepo := repositories.NewSessionRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)

	verifier := auth.NewVerifier(cfg.JWTSecret)

	presence := relay.NewPresence()
	router := relay.NewRouter(presence, sugar)
	coordinator := relay.NewCoordinator(sessionRepo, userRepo, sugar)
	unread := relay.NewUnreadTracker()
	core := relay.New(presence, router, coordinator, sessionRepo, messageRepo, unread, sugar)

	wsHandler := ws.NewHandler(core, verifier, cfg.SendBuffer, sugar)
	chatHandler := handlers.NewChatHandler(sessionRepo, messageRepo, unread, audit)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	engine.GET("/sessions", authMiddleware, chatHandler.ListSessions)
	engine.GET("/sessions/:display_name/messages", authMiddleware, chatHandler.GetChatMessages)
	engine.GET("/unread", authMiddleware, chatHandler.GetUnread)

	engine.GET("/ws", wsHandler.Handle)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sugar.Infow("starting chat relay", "addr", cfg.Addr())
	if err := engine.Run(cfg.Addr()); err != nil {
		sugar.Fatalw("server error", "error", err)
	}
}

func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return logger
}
