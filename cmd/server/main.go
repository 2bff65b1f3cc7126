package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/echocare/internal/ai"
	"github.com/suPer8Hu/echocare/internal/chat"
	"github.com/suPer8Hu/echocare/internal/config"
	"github.com/suPer8Hu/echocare/internal/db"
	"github.com/suPer8Hu/echocare/internal/httpapi"
	"github.com/suPer8Hu/echocare/internal/httpapi/handlers"
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

	gin.SetMode(gin.ReleaseMode)

	gdb, err := db.Open(cfg.DBDSN)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}

	reg := ai.NewDefaultRegistry(ai.Options{
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	svc := chat.NewService(chat.NewRepo(gdb), reg, cfg.AIProvider, cfg.OllamaModel)

	var pub handlers.JobPublisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatal("rabbit publisher", zap.Error(err))
		}
		defer p.Close()
		pub = p
	} else {
		log.Info("RABBIT_URL not set, async chat jobs disabled")
	}

	h := handlers.NewHandler(gdb, cfg, svc, pub, log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("EchoCare server listening", zap.String("addr", cfg.HTTPAddr), zap.String("provider", cfg.AIProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
