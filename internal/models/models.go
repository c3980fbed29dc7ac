package models

import (
	"time"

	"github.com/google/uuid"
)

// Reading представляет сырое показание датчиков птичника
type Reading struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature_c"`
	Humidity    float64   `json:"humidity_pct"`
	Ammonia     float64   `json:"ammonia_ppm"`
	PH          float64   `json:"ph"`
}

// EngineeredReading показание с производными признаками
type EngineeredReading struct {
	Reading
	AmmoniaTempRatio        float64 `json:"ammonia_temp_ratio"`
	TempHumidityInteraction float64 `json:"temp_humidity_interaction"`
}

// ClassificationResult результат классификации серьезности
type ClassificationResult struct {
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// AnomalyResult результат оценки аномальности одного показания
type AnomalyResult struct {
	Score      float64 `json:"score"`
	Threshold  float64 `json:"threshold"`
	IsAnomaly  bool    `json:"is_anomaly"`
	Generation uint64  `json:"generation"`
	// DisplayProbability сигмоида от score, только для отображения,
	// калиброванной вероятностью не является
	DisplayProbability float64         `json:"display_probability"`
	FeatureFlags       map[string]bool `json:"feature_flags"`
}

// HistoryEntry запись истории: показание плюс результаты пайплайна
type HistoryEntry struct {
	Reading        EngineeredReading     `json:"reading"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	Anomaly        *AnomalyResult        `json:"anomaly,omitempty"`
}

// Explanation объяснение последней классификации
type Explanation struct {
	Prediction        string             `json:"prediction"`
	Probabilities     map[string]float64 `json:"probabilities"`
	IsAnomaly         bool               `json:"is_anomaly"`
	AnomalyScore      float64            `json:"anomaly_score"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
}

// ForecastPoint прогноз значений признаков на один шаг вперед
type ForecastPoint struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// SessionStatus сводка текущей сессии мониторинга
type SessionStatus struct {
	LastUpdate        time.Time `json:"last_update"`
	TotalReadings     int       `json:"total_readings"`
	AnomaliesDetected int       `json:"anomalies_detected"`
	ModelGeneration   uint64    `json:"model_generation"`
}

// NewReading создает показание с назначенным ID и текущим временем
func NewReading(temperature, humidity, ammonia, ph float64) Reading {
	return Reading{
		ID:          uuid.New(),
		Timestamp:   time.Now(),
		Temperature: temperature,
		Humidity:    humidity,
		Ammonia:     ammonia,
		PH:          ph,
	}
}
