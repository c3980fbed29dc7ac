package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"poultry-monitor/internal/explain"
	"poultry-monitor/internal/forecast"
	"poultry-monitor/internal/metrics"
	"poultry-monitor/internal/models"
	"poultry-monitor/internal/monitor"
	ws "poultry-monitor/internal/websocket"
)

// Cache снимки сессии, пережившие вытеснение из окна истории
type Cache interface {
	Ping() error
	GetStats() map[string]interface{}
	GetRecentAnomalies(limit int) ([]string, error)
	GetAnomaly(key string) ([]byte, error)
}

// Handler обработчик HTTP запросов API мониторинга
type Handler struct {
	monitor    *monitor.Monitor
	cache      Cache              // nil - кэш недоступен
	explainer  *explain.Explainer // nil - объяснения отключены
	forecaster *forecast.Forecaster
	hub        *ws.Hub
}

// NewHandler создает обработчик API
func NewHandler(m *monitor.Monitor, c Cache, e *explain.Explainer, f *forecast.Forecaster, hub *ws.Hub) *Handler {
	return &Handler{
		monitor:    m,
		cache:      c,
		explainer:  e,
		forecaster: f,
		hub:        hub,
	}
}

// Router собирает маршруты API
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/readings", h.SubmitReading).Methods(http.MethodPost)
	r.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet)
	r.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)
	r.HandleFunc("/anomalies", h.GetAnomalies).Methods(http.MethodGet)
	r.HandleFunc("/forecast", h.GetForecast).Methods(http.MethodGet)
	r.HandleFunc("/explain", h.GetExplanation).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.ServeWS).Methods(http.MethodGet)
	return r
}

// submittedReading тело POST /readings
type submittedReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature_c"`
	Humidity    float64   `json:"humidity_pct"`
	Ammonia     float64   `json:"ammonia_ppm"`
	PH          float64   `json:"ph"`
}

// SubmitReading обрабатывает POST /readings: ручной ввод показания
func (h *Handler) SubmitReading(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/readings").Observe(time.Since(start).Seconds())
	}()

	var body submittedReading
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/readings", "400").Inc()
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	reading := models.NewReading(body.Temperature, body.Humidity, body.Ammonia, body.PH)
	if !body.Timestamp.IsZero() {
		reading.Timestamp = body.Timestamp
	}

	h.monitor.Ingest(reading)

	metrics.RequestsTotal.WithLabelValues(r.Method, "/readings", "202").Inc()
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
		"id":     reading.ID,
	})
}

// GetHistory обрабатывает GET /history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/history").Observe(time.Since(start).Seconds())
	}()

	limit := queryInt(r, "limit", 0)
	entries := h.monitor.Store().Recent(limit)

	metrics.RequestsTotal.WithLabelValues(r.Method, "/history", "200").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

// GetStatus обрабатывает GET /status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	metrics.RequestsTotal.WithLabelValues(r.Method, "/status", "200").Inc()
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// GetAnomalies обрабатывает GET /anomalies: аномальные записи истории
func (h *Handler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/anomalies").Observe(time.Since(start).Seconds())
	}()

	limit := queryInt(r, "limit", 10)

	var anomalies []models.HistoryEntry
	for _, entry := range h.monitor.Store().Snapshot() {
		if entry.Anomaly != nil && entry.Anomaly.IsAnomaly {
			anomalies = append(anomalies, entry)
		}
	}
	if limit > 0 && len(anomalies) > limit {
		anomalies = anomalies[len(anomalies)-limit:]
	}

	// Окно истории могло вытеснить аномалии, индекс в Redis живет дольше
	if len(anomalies) == 0 && h.cache != nil {
		anomalies = h.cachedAnomalies(limit)
	}

	metrics.RequestsTotal.WithLabelValues(r.Method, "/anomalies", "200").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(anomalies),
		"anomalies": anomalies,
	})
}

// cachedAnomalies читает последние аномалии из индекса в Redis
func (h *Handler) cachedAnomalies(limit int) []models.HistoryEntry {
	keys, err := h.cache.GetRecentAnomalies(limit)
	if err != nil {
		metrics.RedisOperations.WithLabelValues("get_anomalies", "error").Inc()
		return nil
	}
	metrics.RedisOperations.WithLabelValues("get_anomalies", "success").Inc()

	var anomalies []models.HistoryEntry
	for _, key := range keys {
		data, err := h.cache.GetAnomaly(key)
		if err != nil || data == nil {
			continue
		}
		var entry models.HistoryEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		anomalies = append(anomalies, entry)
	}
	return anomalies
}

// GetForecast обрабатывает GET /forecast
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/forecast").Observe(time.Since(start).Seconds())
	}()

	points, err := h.forecaster.Predict(h.monitor.Store().Window())
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientHistory) {
			metrics.RequestsTotal.WithLabelValues(r.Method, "/forecast", "200").Inc()
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"status": "insufficient_data",
				"detail": err.Error(),
			})
			return
		}
		metrics.RequestsTotal.WithLabelValues(r.Method, "/forecast", "500").Inc()
		http.Error(w, "Failed to build forecast", http.StatusInternalServerError)
		return
	}

	metrics.RequestsTotal.WithLabelValues(r.Method, "/forecast", "200").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(points),
		"points": points,
	})
}

// GetExplanation обрабатывает GET /explain: объяснение последнего показания
func (h *Handler) GetExplanation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/explain").Observe(time.Since(start).Seconds())
	}()

	if h.explainer == nil {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/explain", "503").Inc()
		http.Error(w, "Explanations disabled: model artifacts unavailable", http.StatusServiceUnavailable)
		return
	}

	latest, ok := h.monitor.Store().Latest()
	if !ok {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/explain", "404").Inc()
		http.Error(w, "No readings yet", http.StatusNotFound)
		return
	}

	explanation, err := h.explainer.Explain(latest.Reading, latest.Anomaly)
	if err != nil {
		// Объяснение деградирует, мониторинг не затрагивается
		metrics.RequestsTotal.WithLabelValues(r.Method, "/explain", "422").Inc()
		http.Error(w, "Failed to explain latest reading", http.StatusUnprocessableEntity)
		return
	}

	metrics.RequestsTotal.WithLabelValues(r.Method, "/explain", "200").Inc()
	writeJSON(w, http.StatusOK, explanation)
}

// HealthCheck обрабатывает GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	redisOK := h.cache != nil && h.cache.Ping() == nil

	status := "healthy"
	httpStatus := http.StatusOK
	if !redisOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"redis":     redisOK,
		"timestamp": time.Now(),
	})
}

// GetStats обрабатывает GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"session":   h.monitor.Status(),
		"timestamp": time.Now(),
	}
	if h.cache != nil {
		stats["redis"] = h.cache.GetStats()
	}

	metrics.RequestsTotal.WithLabelValues(r.Method, "/stats", "200").Inc()
	writeJSON(w, http.StatusOK, stats)
}

// ServeWS обрабатывает GET /ws: живая лента обработанных показаний
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.hub, w, r)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
