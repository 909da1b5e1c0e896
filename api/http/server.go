package http

import (
	"encoding/hex"

	"DocLink/internal/config"
	"DocLink/internal/initial"
	jwtMiddleware "DocLink/internal/middleware/jwt"
	botSvc "DocLink/internal/modules/bot/application/service"
	botPersistence "DocLink/internal/modules/bot/infrastructure/persistence"
	botHandler "DocLink/internal/modules/bot/interface/http"
	ragSvc "DocLink/internal/modules/rag/application/service"
	"DocLink/internal/modules/rag/infrastructure/chunking"
	"DocLink/internal/modules/rag/infrastructure/embedding"
	"DocLink/internal/modules/rag/infrastructure/llm"
	"DocLink/internal/modules/rag/infrastructure/mq"
	"DocLink/internal/modules/rag/infrastructure/mq/kafka"
	ragPersistence "DocLink/internal/modules/rag/infrastructure/persistence"
	"DocLink/internal/modules/rag/infrastructure/pipeline"
	"DocLink/internal/modules/rag/infrastructure/queue"
	"DocLink/internal/modules/rag/infrastructure/session"
	"DocLink/internal/modules/rag/infrastructure/vectordb"
	ragHandler "DocLink/internal/modules/rag/interface/http"
	userSvc "DocLink/internal/modules/user/application/service"
	userPersistence "DocLink/internal/modules/user/infrastructure/persistence"
	userHandler "DocLink/internal/modules/user/interface/http"
	"DocLink/pkg/ssl"
	"DocLink/pkg/vault"
	"DocLink/pkg/ws"
	"DocLink/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var GE *gin.Engine

// IngestWorker 由 main 启动，消费摄取任务队列
var IngestWorker *queue.IngestConsumerWorker

var (
	publisher       mq.Publisher
	consumer        mq.Consumer
	embedderFactory *embedding.GeminiEmbedderFactory
	storeFactory    *vectordb.PineconeStoreFactory
	genFactory      *llm.GeminiGeneratorFactory
)

func init() {
	conf := config.GetConfig()

	masterKey, err := hex.DecodeString(conf.VaultConfig.MasterKey)
	if err != nil || len(masterKey) != vault.KeySize {
		zlog.Fatal("vault masterKey 必须是 64 位十六进制")
	}

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	wsHub := ws.NewHub()

	// 外部服务客户端工厂，按租户凭据构造实例，底层连接池共享
	embedderFactory = embedding.NewGeminiEmbedderFactory(embedding.FactoryConfig{
		BaseURL:        conf.AIConfig.Embedding.BaseURL,
		Model:          conf.AIConfig.Embedding.Model,
		Dimension:      conf.AIConfig.Embedding.Dimensions,
		BatchSize:      conf.AIConfig.Embedding.BatchSize,
		BatchDelayMs:   conf.AIConfig.Embedding.BatchDelayMs,
		RatePerSecond:  float64(conf.AIConfig.Embedding.RatePerSecond),
		TimeoutSeconds: conf.AIConfig.Embedding.TimeoutSeconds,
	})
	storeFactory = vectordb.NewPineconeStoreFactory(conf.AIConfig.VectorStore.APIKey, conf.AIConfig.VectorStore.TimeoutSeconds)
	genFactory = llm.NewGeminiGeneratorFactory(conf.AIConfig.Generation.BaseURL, conf.AIConfig.Generation.Model, conf.AIConfig.Generation.TimeoutSeconds)

	if err := kafka.EnsureTopic(kafka.TopicAdminConfig{
		Brokers:  conf.KafkaConfig.Brokers,
		ClientID: conf.KafkaConfig.ClientID,
	}, conf.KafkaConfig.IngestTopic, 3, 1); err != nil {
		zlog.Fatal("kafka 主题初始化失败: " + err.Error())
	}
	publisher, err = kafka.NewSaramaPublisher(kafka.PublisherConfig{
		Brokers:  conf.KafkaConfig.Brokers,
		ClientID: conf.KafkaConfig.ClientID,
	})
	if err != nil {
		zlog.Fatal("kafka 生产者初始化失败: " + err.Error())
	}
	consumer, err = kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  conf.KafkaConfig.Brokers,
		GroupID:  conf.KafkaConfig.ConsumerGroupID,
		Topics:   []string{conf.KafkaConfig.IngestTopic},
		ClientID: conf.KafkaConfig.ClientID,
	})
	if err != nil {
		zlog.Fatal("kafka 消费者初始化失败: " + err.Error())
	}

	userRepo := userPersistence.NewUserInfoRepository(initial.GormDB)
	botRepo := botPersistence.NewBotRepository(initial.GormDB)
	docRepo := ragPersistence.NewDocumentRepository(initial.GormDB)
	jobRepo := ragPersistence.NewIngestJobRepository(initial.GormDB)
	sessionStore := session.NewRedisSessionStore(initial.RedisClient)

	chunker := chunking.NewChunker(conf.AIConfig.Chunking.Size, conf.AIConfig.Chunking.Overlap, conf.AIConfig.Chunking.MaxLen)
	ingestPipeline := pipeline.NewIngestPipeline(chunker, conf.AIConfig.Embedding.Dimensions)
	retrievePipeline := pipeline.NewRetrievePipeline(conf.AIConfig.TopK)

	userService := userSvc.NewUserInfoService(userRepo)
	botService := botSvc.NewBotService(botRepo, docRepo, storeFactory, masterKey)
	docService := ragSvc.NewDocumentService(botService, docRepo, jobRepo, storeFactory, publisher, conf.KafkaConfig.IngestTopic)
	chatService := ragSvc.NewChatService(botRepo, embedderFactory, storeFactory, genFactory, retrievePipeline, sessionStore, masterKey)
	jobService := ragSvc.NewJobService(botService, jobRepo)

	IngestWorker = queue.NewIngestConsumerWorker(consumer, jobRepo, docRepo, botRepo, embedderFactory, storeFactory, ingestPipeline, wsHub, masterKey)

	userH := userHandler.NewUserInfoHandler(userService)
	botH := botHandler.NewBotHandler(botService)
	docH := ragHandler.NewDocumentHandler(docService)
	chatH := ragHandler.NewChatHandler(chatService)
	jobH := ragHandler.NewJobHandler(jobService)
	wsH := ragHandler.NewProgressWsHandler(wsHub)

	GE.POST("/login", userH.Login)
	GE.POST("/register", userH.Register)

	// 公开挂件接口，机器人状态在服务层校验
	GE.POST("/widget/:botId/chat", chatH.Chat)
	GE.GET("/widget/:botId/sessions/:sessionId", chatH.History)

	// ws 握手带不了 Authorization 头，token 走 URL 参数
	GE.GET("/api/ws", wsH.Connect)

	authed := GE.Group("/api")
	authed.Use(jwtMiddleware.Auth())
	authed.POST("/bots", botH.Create)
	authed.GET("/bots", botH.List)
	authed.GET("/bots/:botId", botH.Get)
	authed.PUT("/bots/:botId", botH.Update)
	authed.DELETE("/bots/:botId", botH.Delete)
	authed.POST("/bots/:botId/documents", docH.Upload)
	authed.GET("/bots/:botId/documents", docH.List)
	authed.DELETE("/bots/:botId/documents/:documentId", docH.Delete)
	authed.GET("/jobs/:jobId", jobH.Get)
}

// Shutdown 关闭队列、redis 与外部服务连接池
func Shutdown() {
	if consumer != nil {
		_ = consumer.Close()
	}
	if publisher != nil {
		_ = publisher.Close()
	}
	if embedderFactory != nil {
		embedderFactory.Close()
	}
	if storeFactory != nil {
		storeFactory.Close()
	}
	if genFactory != nil {
		genFactory.Close()
	}
	if initial.RedisClient != nil {
		_ = initial.RedisClient.Close()
	}
}
