package main

import (
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"slideConverter/api/config"
	"slideConverter/api/handlers"
	"slideConverter/api/middleware"
	"slideConverter/api/service"
	"slideConverter/api/store"
	"slideConverter/worker/converter"
	"slideConverter/worker/pool"
	"slideConverter/worker/runner"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	logger.Info("API Service starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("output_dir", cfg.OutputDir))

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Fatal("Failed to create output directory", zap.Error(err))
	}

	taskStore := store.NewTaskStore()
	conv := converter.NewConverter(logger, cfg.ConvertTimeout)

	backends := conv.AvailableBackends()
	if len(backends) == 0 {
		logger.Warn("No conversion backend available, submitted tasks will fail")
	} else {
		logger.Info("Conversion backends ready", zap.Strings("backends", backends))
	}

	taskRunner := runner.New(taskStore, conv, logger, cfg.BaseURL, cfg.OutputDir)
	workerPool := pool.NewWorkerPool(cfg.WorkerCount, logger)
	taskService := service.NewTaskService(taskStore, taskRunner, workerPool, conv, logger, cfg.BaseURL, cfg.OutputDir)

	handler := handlers.NewTaskHandler(taskService, logger, handlers.Config{
		Port:        cfg.Port,
		MaxFileSize: cfg.MaxFileSize,
		Defaults: converter.Options{
			DPI:     cfg.DefaultDPI,
			Format:  cfg.DefaultFormat,
			Quality: cfg.JPEGQuality,
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/convert-async", handler.ConvertAsync)
	mux.HandleFunc("POST /api/convert", handler.ConvertSync)
	mux.HandleFunc("GET /api/task/{id}", handler.Status)
	mux.HandleFunc("DELETE /api/task/{id}", handler.Delete)
	mux.HandleFunc("GET /api/tasks", handler.List)
	mux.HandleFunc("GET /health", handler.Health)
	mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.OutputDir))))

	chain := middleware.TraceID(
		middleware.Logging(logger)(
			middleware.Recovery(logger)(
				middleware.CORS(mux))))

	logger.Info("Server started", zap.String("address", ":"+cfg.Port))
	log.Fatal(http.ListenAndServe(":"+cfg.Port, chain))
}
