package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal общее количество HTTP запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration продолжительность HTTP запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ReadingsReceived принятые показания датчиков
	ReadingsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_received_total",
			Help: "Total number of sensor readings received",
		},
	)

	// ReadingsRejected показания, отклоненные при инженерии признаков
	ReadingsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_rejected_total",
			Help: "Total number of readings rejected by feature engineering",
		},
	)

	// SeverityClassifications классификации по меткам серьезности
	SeverityClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "severity_classifications_total",
			Help: "Total number of severity classifications by label",
		},
		[]string{"label"},
	)

	// AnomaliesDetected обнаруженные аномалии
	AnomaliesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
	)

	// AnalysisLatency задержка обработки одного показания
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_latency_seconds",
			Help:    "Reading processing latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// CurrentSensorValue текущие значения датчиков
	CurrentSensorValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "current_sensor_value",
			Help: "Current sensor values by feature",
		},
		[]string{"feature"},
	)

	// CurrentAnomalyScore последняя оценка аномальности
	CurrentAnomalyScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "current_anomaly_score",
			Help: "Anomaly score of the latest reading",
		},
	)

	// AnomalyThreshold порог текущего поколения модели
	AnomalyThreshold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anomaly_threshold",
			Help: "Detection threshold of the current model generation",
		},
	)

	// ModelGeneration поколение модели аномалий
	ModelGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anomaly_model_generation",
			Help: "Generation counter of the fitted anomaly model",
		},
	)

	// WindowSize размер окна истории
	WindowSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "history_window_size",
			Help: "Current size of the history window",
		},
	)

	// RedisOperations операции с Redis
	RedisOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)

	// WebsocketClients подключенные клиенты живой ленты
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)
