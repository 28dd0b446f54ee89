package app

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"time"

	"wordnest/internal/config"
	"wordnest/internal/handlers"
	"wordnest/internal/middleware"
	"wordnest/internal/pdf"
	"wordnest/internal/repositories"
	"wordnest/internal/routes"
	"wordnest/internal/services"
	"wordnest/internal/session"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func Run() {
	cfg := config.LoadConfig()
	middleware.SetJWTKey(cfg.JWT.Secret)

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Session store ===
	// с Redis в конфиге состояние переживает рестарты, иначе — в памяти
	var sessions session.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessions = session.NewRedisStore(client, cfg.SessionTTL())
		log.Printf("Сессии: redis addr=%s ttl=%s", cfg.Redis.Addr, cfg.SessionTTL())
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL())
		log.Printf("Сессии: in-memory ttl=%s", cfg.SessionTTL())
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	codeRepo := repositories.NewVerificationCodeRepository(db)
	wordRepo := repositories.NewWordRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	testRepo := repositories.NewTestSessionRepository(db)
	teachingRepo := repositories.NewTeachingRepository(db)
	statsRepo := repositories.NewStatisticsRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	var telegramService *services.TelegramService
	if cfg.Telegram.Enabled {
		telegramService = services.NewTelegramService(cfg.Telegram.BotToken)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	userService := services.NewUserService(userRepo)
	verificationService := services.NewVerificationService(codeRepo, userRepo, emailService, authService, sessions, rng)
	wordService := services.NewWordService(wordRepo, categoryRepo, statsRepo)
	quizService := services.NewQuizService(wordRepo, testRepo, statsRepo, sessions, rng)
	teachingService := services.NewTeachingService(teachingRepo, userRepo, categoryRepo, wordRepo, emailService, telegramService)
	statsService := services.NewStatsService(wordRepo, testRepo, statsRepo)

	// PDF генератор (укажи реальный путь к TTF с кириллицей)
	// например, положи DejaVuSans.ttf в assets/fonts/DejaVuSans.ttf
	pdfGen := pdf.NewDocumentGenerator(cfg.Files.RootDir, "assets/fonts/DejaVuSans.ttf")
	reportService := services.NewReportService(userRepo, wordRepo, testRepo, statsService, pdfGen)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(verificationService, userService)
	userHandler := handlers.NewUserHandler(userService)
	wordHandler := handlers.NewWordHandler(wordService)
	categoryHandler := handlers.NewCategoryHandler(wordService)
	quizHandler := handlers.NewQuizHandler(quizService)
	teachingHandler := handlers.NewTeachingHandler(teachingService)
	statsHandler := handlers.NewStatsHandler(statsService)
	reportHandler := handlers.NewReportHandler(reportService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.SessionMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Роуты (JWT/RBAC — внутри SetupRoutes)
	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		wordHandler,
		categoryHandler,
		quizHandler,
		teachingHandler,
		statsHandler,
		reportHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
