package history

import (
	"sync"
	"time"

	"poultry-monitor/internal/models"
)

// Store упорядоченная история показаний сессии с результатами пайплайна.
// Единственная точка взаимного исключения для окна: запись и чтение
// сериализуются, читатель видит только полностью добавленные записи.
// capacity 0 - окно растет без ограничения (эталонное поведение),
// иначе старейшие записи вытесняются по кольцу.
type Store struct {
	mu       sync.RWMutex
	entries  []models.HistoryEntry
	capacity int

	totalReadings     int
	anomaliesDetected int
	lastUpdate        time.Time
}

// NewStore создает историю с заданной вместимостью (0 - без ограничения)
func NewStore(capacity int) *Store {
	return &Store{
		entries:  make([]models.HistoryEntry, 0, 64),
		capacity: capacity,
	}
}

// Append добавляет запись в хвост истории
func (s *Store) Append(entry models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity > 0 && len(s.entries) >= s.capacity {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)

	s.totalReadings++
	s.lastUpdate = entry.Reading.Timestamp
	if entry.Anomaly != nil && entry.Anomaly.IsAnomaly {
		s.anomaliesDetected++
	}
}

// Len текущая длина окна
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Window снимок окна показаний для детектора аномалий
func (s *Store) Window() []models.EngineeredReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := make([]models.EngineeredReading, len(s.entries))
	for i := range s.entries {
		window[i] = s.entries[i].Reading
	}
	return window
}

// Snapshot копия всей истории для слоя отображения
func (s *Store) Snapshot() []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]models.HistoryEntry, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}

// Recent последние count записей (все, если count велик или не положителен)
func (s *Store) Recent(count int) []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if count <= 0 || count > len(s.entries) {
		count = len(s.entries)
	}
	recent := make([]models.HistoryEntry, count)
	copy(recent, s.entries[len(s.entries)-count:])
	return recent
}

// Latest последняя запись истории, false если история пуста
func (s *Store) Latest() (models.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return models.HistoryEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Status сводка сессии мониторинга
func (s *Store) Status() models.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.SessionStatus{
		LastUpdate:        s.lastUpdate,
		TotalReadings:     s.totalReadings,
		AnomaliesDetected: s.anomaliesDetected,
	}
}
