package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
	config "github.com/topcx/autoposter/configs"
	"github.com/topcx/autoposter/internal/api/handlers"
	"github.com/topcx/autoposter/internal/api/middleware"
	job "github.com/topcx/autoposter/internal/jobs"
	"github.com/topcx/autoposter/internal/queue"
	"github.com/topcx/autoposter/internal/repository"
	"github.com/topcx/autoposter/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    12 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	accountRepo := repository.NewLinkedinAccountRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	mediaStorage, err := service.NewR2Storage(*cfg)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	authService := service.NewAuthService(*cfg)
	settingsService := service.NewSettingsService(settingsRepo)
	linkedinService := service.NewLinkedinService(*cfg, accountRepo)
	publishService := service.NewPublishService()
	postService := service.NewPostService(postRepo, linkedinService, publishService, mediaStorage)
	schedulerService := service.NewSchedulerService(postRepo, settingsService)
	generateService := service.NewGenerateService(*cfg, settingsService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService, linkedinService)
	app.Post("/api/auth/login", auth.Login)
	app.Post("/api/auth/logout", auth.Logout)
	app.Get("/api/auth/linkedin/callback", auth.LinkedinCallback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/me", auth.Me)
	api.Get("/auth/linkedin/initiate", auth.LinkedinInitiate)
	api.Get("/auth/linkedin/status", auth.LinkedinStatus)
	api.Post("/auth/linkedin/disconnect", auth.LinkedinDisconnect)

	post := handlers.NewPostHandler(postService, schedulerService)
	api.Get("/posts/queue", post.ListQueue)
	api.Post("/posts", post.CreatePost)
	api.Put("/posts/reorder", post.Reorder)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.RemovePost)
	api.Post("/posts/:id/image", post.UploadImage)
	api.Delete("/posts/:id/image", post.RemoveImage)
	api.Post("/posts/:id/publish-now", post.PublishNow)
	api.Post("/posts/auto-schedule", post.AutoSchedule)
	api.Get("/history", post.ListHistory)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/schedule", settings.GetSchedule)
	api.Put("/settings/schedule", settings.UpdateSchedule)
	api.Get("/settings/ai", settings.GetAI)
	api.Put("/settings/ai", settings.UpdateAI)

	generate := handlers.NewGenerateHandler(generateService)
	api.Post("/generate", generate.Generate)
	api.Post("/generate/improve", generate.Improve)

	publisherJob := job.NewPublisherJob(postRepo, linkedinService, postService, settingsService)
	queueW := queue.NewQueue(publisherJob, schedulerService)

	c := cron.New()
	c.AddFunc("@every 00h05m00s", func() {
		if err := queue.EnqueuePublishCycle(client); err != nil {
			log.Printf("Failed to enqueue publish cycle: %v", err)
		}
	})
	c.AddFunc("@daily", func() {
		if err := queue.EnqueueAutoSchedule(client); err != nil {
			log.Printf("Failed to enqueue auto-schedule: %v", err)
		}
	})
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 1,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishCycle, queueW.HandlePublishCycleTask)
		mux.HandleFunc(queue.TaskTypeAutoSchedule, queueW.HandleAutoScheduleTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
