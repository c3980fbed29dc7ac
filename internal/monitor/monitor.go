package monitor

import (
	"errors"
	"log"
	"sync"
	"time"

	"poultry-monitor/internal/anomaly"
	"poultry-monitor/internal/classifier"
	"poultry-monitor/internal/features"
	"poultry-monitor/internal/history"
	"poultry-monitor/internal/metrics"
	"poultry-monitor/internal/models"
)

// Monitor пайплайн мониторинга: показание -> инженерия признаков ->
// {классификация, оценка аномальности} -> запись в историю.
// Единственный писатель всего состояния: окно истории и модель аномалий
// меняются только из цикла run, читатели получают снимки.
type Monitor struct {
	classifier *classifier.Classifier // nil - классификация отключена
	scorer     *anomaly.Scorer
	store      *history.Store

	ingest   chan models.Reading
	results  chan models.HistoryEntry
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New создает пайплайн. Классификатор может быть nil: при отсутствующих
// или несогласованных артефактах мониторинг продолжается без
// классификации, а не падает целиком.
func New(cls *classifier.Classifier, scorer *anomaly.Scorer, store *history.Store) *Monitor {
	return &Monitor{
		classifier: cls,
		scorer:     scorer,
		store:      store,
		ingest:     make(chan models.Reading, 100),
		results:    make(chan models.HistoryEntry, 100),
		stopChan:   make(chan struct{}),
	}
}

// Ingest передает показание в пайплайн, не блокируясь
func (m *Monitor) Ingest(r models.Reading) {
	select {
	case m.ingest <- r:
	default:
		// Очередь полна, показание пропускаем
		log.Printf("Ingest queue full, dropping reading %s\n", r.ID)
	}
}

// Results канал обработанных записей для слоя отображения
func (m *Monitor) Results() <-chan models.HistoryEntry {
	return m.results
}

// Store хранилище истории сессии
func (m *Monitor) Store() *history.Store {
	return m.store
}

// Start запускает цикл обработки
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop останавливает цикл обработки
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()
		close(m.results)
	})
}

// Status сводка сессии вместе с поколением модели аномалий
func (m *Monitor) Status() models.SessionStatus {
	status := m.store.Status()
	status.ModelGeneration = m.scorer.Generation()
	return status
}

func (m *Monitor) run() {
	defer m.wg.Done()

	for {
		select {
		case <-m.stopChan:
			return
		case reading := <-m.ingest:
			entry, err := m.process(reading)
			if err != nil {
				continue
			}
			select {
			case m.results <- entry:
			default:
				// Канал результатов полон
			}
		}
	}
}

// process прогоняет одно показание через пайплайн. Ошибка инженерии
// признаков отклоняет только это показание; ошибки классификации
// пропускают классификацию на этот цикл, мониторинг продолжается.
func (m *Monitor) process(reading models.Reading) (models.HistoryEntry, error) {
	start := time.Now()
	metrics.ReadingsReceived.Inc()

	er, err := features.Engineer(reading)
	if err != nil {
		metrics.ReadingsRejected.Inc()
		log.Printf("Reading %s rejected: %v\n", reading.ID, err)
		return models.HistoryEntry{}, err
	}

	entry := models.HistoryEntry{Reading: er}

	if m.classifier != nil {
		result, err := m.classifier.Classify(er)
		if err != nil {
			// Классификация пропускается на этот цикл
			log.Printf("Classification skipped for reading %s: %v\n", reading.ID, err)
		} else {
			entry.Classification = &result
			metrics.SeverityClassifications.WithLabelValues(result.Label).Inc()
		}
	}

	// Окно для детектора включает и новое показание
	window := append(m.store.Window(), er)
	anomalyResult, err := m.scorer.Observe(window)
	switch {
	case errors.Is(err, anomaly.ErrInsufficientData):
		// Нормальное состояние раннего этапа, результата пока нет
	case err != nil:
		log.Printf("Anomaly scoring failed for reading %s: %v\n", reading.ID, err)
	default:
		entry.Anomaly = &anomalyResult
		metrics.CurrentAnomalyScore.Set(anomalyResult.Score)
		metrics.AnomalyThreshold.Set(anomalyResult.Threshold)
		metrics.ModelGeneration.Set(float64(anomalyResult.Generation))
		if anomalyResult.IsAnomaly {
			metrics.AnomaliesDetected.Inc()
			log.Printf("ANOMALY DETECTED: reading=%s score=%.3f threshold=%.3f generation=%d\n",
				reading.ID, anomalyResult.Score, anomalyResult.Threshold, anomalyResult.Generation)
		}
	}

	m.store.Append(entry)

	metrics.WindowSize.Set(float64(m.store.Len()))
	metrics.CurrentSensorValue.WithLabelValues(features.Temperature).Set(er.Temperature)
	metrics.CurrentSensorValue.WithLabelValues(features.Humidity).Set(er.Humidity)
	metrics.CurrentSensorValue.WithLabelValues(features.Ammonia).Set(er.Ammonia)
	metrics.CurrentSensorValue.WithLabelValues(features.PH).Set(er.PH)
	metrics.AnalysisLatency.Observe(time.Since(start).Seconds())

	return entry, nil
}
