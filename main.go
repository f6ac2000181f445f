package main

import (
	"log"
	"time"

	"backend_fleetmaint/api"
	"backend_fleetmaint/config"
	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// initDB инициализирует подключение к базе данных
func initDB() {
	log.Println("🔧 Инициализация базы данных...")

	// Создаем базу данных, если она не существует
	if err := database.CreateDatabaseIfNotExists(); err != nil {
		log.Fatal("❌ Ошибка при создании базы данных:", err)
	}

	// Подключаемся к базе данных
	if err := database.ConnectDatabase(); err != nil {
		log.Fatal("❌ Ошибка подключения к базе данных:", err)
	}

	// Служебные индексы не критичны для запуска
	if err := database.CreatePerformanceIndexes(database.GetDB()); err != nil {
		log.Printf("⚠️  Не удалось создать индексы производительности: %v", err)
	}

	log.Println("✅ База данных успешно инициализирована")
}

// initServices собирает глобальные сервисы приложения
func initServices(cfg *config.Config) *services.SchedulerService {
	cache := services.NewCacheService(database.GetRedis(), nil)
	services.SetCacheService(cache)

	notifications := services.NewNotificationService(database.GetDB(), cfg)
	services.SetNotificationService(notifications)

	// Шаблоны уведомлений по умолчанию
	if err := notifications.CreateDefaultTemplates(); err != nil {
		log.Printf("⚠️  Не удалось создать шаблоны уведомлений: %v", err)
	}

	routes := services.NewRouteService(database.GetDB())
	return services.NewSchedulerService(database.GetDB(), routes, notifications)
}

// setupRouter настраивает Gin router со всеми маршрутами API
func setupRouter(cfg *config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}))

	// Проверка работоспособности
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "success",
			"message":  "pong",
			"database": "connected",
		})
	})

	auth := middleware.NewAuthMiddleware(cfg)

	// Аутентификация
	r.POST("/api/auth/login", middleware.AuthRateLimit(), api.Login)

	// Защищенные роуты
	protected := r.Group("/api")
	protected.Use(auth.RequireAuth(), middleware.ModerateRateLimit())
	{
		protected.GET("/auth/me", api.GetCurrentUserInfo)

		// Активы
		protected.GET("/assets", api.GetAssets)
		protected.GET("/assets/:id", api.GetAsset)
		protected.GET("/assets/:id/hours", api.GetAssetLedger)
		protected.GET("/assets/:id/hours/export", api.ExportAssetLedger)

		// Системы
		protected.GET("/systems", api.GetSystems)
		protected.GET("/systems/:id", api.GetSystem)

		// Оборудование и журнал наработки
		protected.GET("/equipment", api.GetEquipmentList)
		protected.GET("/equipment/:id", api.GetEquipment)
		protected.GET("/equipment/:id/hours", api.GetEquipmentLedger)
		protected.POST("/equipment/:id/hours", api.SubmitHourReport)
		protected.PUT("/hours/:id", api.UpdateHourReport)
		protected.DELETE("/hours/:id", api.DeleteHourReport)

		// Маршруты обслуживания
		protected.GET("/routes", api.GetRoutes)
		protected.GET("/routes/summary", api.GetRoutesSummary)
		protected.GET("/routes/:id", api.GetRoute)

		// Наряды и задачи
		protected.GET("/work-orders", api.GetWorkOrders)
		protected.GET("/work-orders/:id", api.GetWorkOrder)
		protected.POST("/work-orders", api.CreateWorkOrder)
		protected.PUT("/work-orders/:id", api.UpdateWorkOrder)
		protected.GET("/work-orders/:id/report", api.GetWorkOrderReport)
		protected.POST("/tasks", api.CreateTask)
		protected.PATCH("/tasks/:id", api.UpdateTask)
		protected.DELETE("/tasks/:id", api.DeleteTask)

		// Отчеты об отказах
		protected.GET("/failure-reports", api.GetFailureReports)
		protected.GET("/failure-reports/:id", api.GetFailureReport)
		protected.POST("/failure-reports", api.CreateFailureReport)
		protected.PUT("/failure-reports/:id", api.UpdateFailureReport)
		protected.POST("/failure-reports/:id/close", api.CloseFailureReport)

		// Операции
		protected.GET("/operations", api.GetOperations)
		protected.GET("/operations/:id", api.GetOperation)
		protected.POST("/operations", api.CreateOperation)
		protected.PUT("/operations/:id", api.UpdateOperation)

		// Дашборд
		protected.GET("/dashboard/indicators", api.GetDashboard)
	}

	// Операции, требующие прав руководителя
	supervised := r.Group("/api")
	supervised.Use(auth.RequireAuth(), auth.RequireSupervisor(), middleware.ModerateRateLimit())
	{
		supervised.GET("/users", api.GetUsers)
		supervised.GET("/users/:id", api.GetUser)
		supervised.POST("/users", api.CreateUser)
		supervised.PUT("/users/:id", api.UpdateUser)
		supervised.DELETE("/users/:id", api.DeleteUser)

		supervised.POST("/assets", api.CreateAsset)
		supervised.PUT("/assets/:id", api.UpdateAsset)
		supervised.DELETE("/assets/:id", api.DeleteAsset)

		supervised.POST("/systems", api.CreateSystem)
		supervised.PUT("/systems/:id", api.UpdateSystem)
		supervised.DELETE("/systems/:id", api.DeleteSystem)

		supervised.POST("/equipment", api.CreateEquipment)
		supervised.PUT("/equipment/:id", api.UpdateEquipment)
		supervised.DELETE("/equipment/:id", api.DeleteEquipment)

		supervised.POST("/routes", api.CreateRoute)
		supervised.PUT("/routes/:id", api.UpdateRoute)
		supervised.DELETE("/routes/:id", api.DeleteRoute)
		supervised.POST("/routes/:id/create-order", api.CreateRouteWorkOrders)

		supervised.POST("/work-orders/:id/finish", api.FinishWorkOrder)
		supervised.POST("/failure-reports/:id/create-order", api.CreateFailureWorkOrder)
		supervised.DELETE("/failure-reports/:id", api.DeleteFailureReport)

		supervised.DELETE("/operations/:id", api.DeleteOperation)

		supervised.GET("/notifications/logs", api.GetNotificationLogs)
		supervised.GET("/notifications/statistics", api.GetNotificationStatistics)
	}

	return r
}

func main() {
	// Конфигурация загружает .env и переменные окружения
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("❌ Ошибка загрузки конфигурации:", err)
	}
	cfg.LogConfig()

	// Инициализируем базу данных
	initDB()

	// Redis не критичен: без него отключаются кэш и лимиты запросов
	if err := database.InitRedis(); err != nil {
		log.Printf("⚠️  Redis недоступен, кэширование отключено: %v", err)
	}

	scheduler := initServices(cfg)
	if err := scheduler.Start(); err != nil {
		log.Printf("⚠️  Не удалось запустить планировщик: %v", err)
	}
	defer scheduler.Stop()

	r := setupRouter(cfg)

	log.Printf("🚀 Сервер запущен на порту %s", cfg.App.Port)
	if err := r.Run(cfg.App.Host + ":" + cfg.App.Port); err != nil {
		log.Fatal("❌ Ошибка запуска сервера:", err)
	}
}
