package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"poultry-monitor/internal/anomaly"
	"poultry-monitor/internal/artifacts"
	"poultry-monitor/internal/cache"
	"poultry-monitor/internal/classifier"
	"poultry-monitor/internal/config"
	"poultry-monitor/internal/explain"
	"poultry-monitor/internal/forecast"
	"poultry-monitor/internal/handlers"
	"poultry-monitor/internal/history"
	"poultry-monitor/internal/metrics"
	"poultry-monitor/internal/monitor"
	"poultry-monitor/internal/stream"
	ws "poultry-monitor/internal/websocket"
)

func main() {
	log.Println("Starting Poultry Environment Monitoring Service...")

	// .env подхватывается до чтения конфигурации
	godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Redis: отказ кэша деградирует только внешнюю выдачу
	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	if err != nil {
		log.Printf("Redis unavailable, snapshots disabled: %v\n", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
		log.Println("Connected to Redis")
	}

	// Артефакты модели: без них мониторинг работает, но без классификации
	var severityClassifier *classifier.Classifier
	var explainer *explain.Explainer
	bundle, err := artifacts.Load(cfg.Artifacts.Dir)
	if err != nil {
		log.Printf("Classification disabled: %v\n", err)
	} else {
		severityClassifier = classifier.New(bundle)
		explainer = explain.New(bundle)
		log.Printf("Model artifacts loaded: %d features, %d classes\n",
			bundle.Schema.Len(), len(bundle.Forest.Classes))
	}

	store := history.NewStore(cfg.History.Capacity)
	scorer := anomaly.NewScorerWith(cfg.Anomaly.MinWindow, cfg.Anomaly.RetrainInterval, cfg.Anomaly.Contamination)
	forecaster := forecast.NewForecaster(cfg.Forecast.SequenceLength, cfg.Forecast.PredictionLength)

	pipeline := monitor.New(severityClassifier, scorer, store)
	pipeline.Start()
	defer pipeline.Stop()
	log.Printf("Monitoring pipeline started: min window %d, retrain every %d readings\n",
		cfg.Anomaly.MinWindow, cfg.Anomaly.RetrainInterval)

	hub := ws.NewHub()
	hub.Run()
	defer hub.Stop()

	// Результаты пайплайна уходят в живую ленту и в Redis
	go publishResults(pipeline, hub, redisCache)

	// Фоновый источник показаний
	var producer *stream.Producer
	if cfg.Stream.Enabled {
		producer = stream.NewProducer(stream.NewGenerator(cfg.Stream.Seed), cfg.StreamInterval())
		producer.Start()
		defer producer.Stop()
		go func() {
			for reading := range producer.Readings() {
				pipeline.Ingest(reading)
			}
		}()
	}

	// Периодический снимок сводки сессии
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.Every(30).Seconds().Do(func() {
		status := pipeline.Status()
		metrics.WindowSize.Set(float64(store.Len()))
		if redisCache != nil {
			if err := redisCache.StoreStatus(status); err == nil {
				metrics.RedisOperations.WithLabelValues("store_status", "success").Inc()
			} else {
				metrics.RedisOperations.WithLabelValues("store_status", "error").Inc()
			}
		}
	})
	scheduler.StartAsync()
	defer scheduler.Stop()

	// Интерфейсный nil не должен прятать нулевой указатель на кэш
	var apiCache handlers.Cache
	if redisCache != nil {
		apiCache = redisCache
	}
	handler := handlers.NewHandler(pipeline, apiCache, explainer, forecaster, hub)
	router := handler.Router()
	router.Handle("/prometheus", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s\n", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

// publishResults рассылает обработанные записи клиентам живой ленты
// и сохраняет снимки в Redis
func publishResults(pipeline *monitor.Monitor, hub *ws.Hub, redisCache *cache.RedisCache) {
	for entry := range pipeline.Results() {
		hub.Broadcast(entry)

		if redisCache == nil {
			continue
		}

		id := entry.Reading.ID.String()
		timestamp := entry.Reading.Timestamp

		go func(r interface{}) {
			if err := redisCache.StoreReading(id, timestamp, r); err == nil {
				metrics.RedisOperations.WithLabelValues("store_reading", "success").Inc()
			} else {
				metrics.RedisOperations.WithLabelValues("store_reading", "error").Inc()
			}
		}(entry.Reading)

		go func(e interface{}) {
			if err := redisCache.StoreAnalysis(id, timestamp, e); err == nil {
				metrics.RedisOperations.WithLabelValues("store_analysis", "success").Inc()
			} else {
				metrics.RedisOperations.WithLabelValues("store_analysis", "error").Inc()
			}
		}(entry)

		if entry.Anomaly != nil && entry.Anomaly.IsAnomaly {
			go func(e interface{}) {
				if err := redisCache.StoreAnomaly(id, timestamp, e); err == nil {
					metrics.RedisOperations.WithLabelValues("store_anomaly", "success").Inc()
				} else {
					metrics.RedisOperations.WithLabelValues("store_anomaly", "error").Inc()
				}
			}(entry)
		}
	}
}
