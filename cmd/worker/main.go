package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"elysian-backend/internal/shared"
	"elysian-backend/pkg/container"
	"elysian-backend/pkg/logger"
)

// workerConcurrency bounds how many tasks run at once. Stock syncs are
// cheap single-row recomputes, so a moderate pool is plenty.
const workerConcurrency = 10

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	c, err := container.NewContainer(context.Background())
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	defer c.Cleanup()

	mux := asynq.NewServeMux()
	mux.Handle(shared.TypeCatalogSyncProductStock, c.StockSyncHandler)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		},
		asynq.Config{
			Concurrency: workerConcurrency,
			Queues: map[string]int{
				shared.QueueCatalog: 5,
				"default":           1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed: "+task.Type(), err)
			}),
		},
	)

	if err := srv.Start(mux); err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}

	logger.Info("worker started", map[string]interface{}{
		"concurrency": workerConcurrency,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down", nil)
	srv.Shutdown()
	logger.Info("worker stopped", nil)
}
