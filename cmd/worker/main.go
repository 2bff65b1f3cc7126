package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sourcegraph/conc/pool"
	"github.com/suPer8Hu/echocare/internal/ai"
	"github.com/suPer8Hu/echocare/internal/chat"
	"github.com/suPer8Hu/echocare/internal/config"
	"github.com/suPer8Hu/echocare/internal/db"
	"github.com/suPer8Hu/echocare/internal/logging"
	"github.com/suPer8Hu/echocare/internal/store/rabbitmq"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required for the worker")
	}

	gdb, err := db.Open(cfg.DBDSN)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}

	reg := ai.NewDefaultRegistry(ai.Options{
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	svc := chat.NewService(chat.NewRepo(gdb), reg, cfg.AIProvider, cfg.OllamaModel)

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency

	consumer, msgs, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, concurrency)
	if err != nil {
		log.Fatal("rabbit consumer", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started", zap.String("queue", cfg.RabbitQueue), zap.Int("concurrency", concurrency))

	workers := pool.New().WithMaxGoroutines(concurrency)
	defer workers.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				return
			}
			workers.Go(func() { handleDelivery(ctx, log, svc, d) })
		}
	}
}

func handleDelivery(ctx context.Context, log *zap.Logger, svc *chat.Service, d amqp.Delivery) {
	jobID, err := rabbitmq.DecodeJob(d.Body)
	if err != nil {
		log.Warn("bad message", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	if err := svc.Process(ctx, jobID); err != nil {
		log.Warn("job failed", zap.String("job_id", jobID), zap.Duration("cost", time.Since(start)), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Warn("ack failed", zap.String("job_id", jobID), zap.Error(err))
	}
	if cost := time.Since(start); cost > 2*time.Second {
		log.Info("job_timing", zap.String("job_id", jobID), zap.Duration("total", cost))
	}
}
