package anomaly

import (
	"errors"
	"math"
	"sync"

	"poultry-monitor/internal/features"
	"poultry-monitor/internal/models"
)

// Параметры по умолчанию детектора аномалий
const (
	DefaultMinWindow        = 10
	DefaultRetrainInterval  = 10
	DefaultContaminationPct = 0.1
)

// ErrInsufficientData окно еще не накопило минимум показаний.
// Не ошибка, а нормальное состояние раннего этапа сессии: вызывающий
// трактует его как "результата пока нет".
var ErrInsufficientData = errors.New("insufficient data for anomaly detection")

// fittedModel обученная модель с порогом одного поколения.
// Порог публикуется только вместе с моделью, под которой он посчитан.
type fittedModel struct {
	est        *estimator
	threshold  float64
	generation uint64
}

// Scorer детектор аномалий над растущим окном истории.
// Состояния: без модели (всегда "недостаточно данных" либо первое
// обучение), обучен, переобучение на каждом retrainInterval-м показании.
type Scorer struct {
	mu              sync.Mutex
	minWindow       int
	retrainInterval int
	contamination   float64
	model           *fittedModel
	sinceRefit      int // показаний, оцененных с последнего обучения
}

// NewScorer создает детектор с параметрами по умолчанию
func NewScorer() *Scorer {
	return NewScorerWith(DefaultMinWindow, DefaultRetrainInterval, DefaultContaminationPct)
}

// NewScorerWith создает детектор с явными параметрами окна и переобучения
func NewScorerWith(minWindow, retrainInterval int, contamination float64) *Scorer {
	if minWindow <= 0 {
		minWindow = DefaultMinWindow
	}
	if retrainInterval <= 0 {
		retrainInterval = DefaultRetrainInterval
	}
	if contamination <= 0 || contamination >= 1 {
		contamination = DefaultContaminationPct
	}
	return &Scorer{
		minWindow:       minWindow,
		retrainInterval: retrainInterval,
		contamination:   contamination,
	}
}

// Generation текущее поколение модели, 0 пока модель не обучена
func (s *Scorer) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return 0
	}
	return s.model.generation
}

// Observe оценивает последнее показание окна. Переобучение происходит
// при первом достаточном окне и далее на каждом retrainInterval-м
// показании; оценка и порог всегда берутся из одного поколения модели,
// свежая оценка никогда не сравнивается со старым порогом.
func (s *Scorer) Observe(window []models.EngineeredReading) (models.AnomalyResult, error) {
	if len(window) < s.minWindow {
		return models.AnomalyResult{}, ErrInsufficientData
	}

	data := make([][]float64, len(window))
	for i := range window {
		data[i] = features.BaseVector(window[i])
	}

	// Счетчик ведется по оцененным показаниям, а не по длине окна:
	// при ограниченной вместимости истории длина окна насыщается и
	// перестает расти, переобучение при этом продолжается
	s.mu.Lock()
	s.sinceRefit++
	if s.model == nil || s.sinceRefit >= s.retrainInterval {
		s.retrain(data)
		s.sinceRefit = 0
	}
	model := s.model
	s.mu.Unlock()

	latest := data[len(data)-1]
	score := model.est.scoreSample(latest)

	return models.AnomalyResult{
		Score:              score,
		Threshold:          model.threshold,
		IsAnomaly:          score < model.threshold,
		Generation:         model.generation,
		DisplayProbability: sigmoid(score),
		FeatureFlags:       featureFlags(data, latest),
	}, nil
}

// retrain обучает модель на всем окне и атомарно публикует ее вместе
// с порогом - процентилем внутривыборочных оценок, соответствующим
// доле загрязнения. Вызывается под s.mu.
func (s *Scorer) retrain(data [][]float64) {
	est := fit(data)
	scores := est.scoreSamples(data)

	var generation uint64 = 1
	if s.model != nil {
		generation = s.model.generation + 1
	}

	s.model = &fittedModel{
		est:        est,
		threshold:  percentile(scores, s.contamination*100),
		generation: generation,
	}
}

// featureFlags отмечает базовые признаки последнего показания,
// отклонившиеся больше чем на два стандартных отклонения от среднего
// по текущему окну. Статистики пересчитываются на каждый вызов, кэша нет.
func featureFlags(data [][]float64, latest []float64) map[string]bool {
	flags := make(map[string]bool, len(features.BaseFeatures))
	n := float64(len(data))

	for j, name := range features.BaseFeatures {
		sum := 0.0
		for i := range data {
			sum += data[i][j]
		}
		mean := sum / n

		variance := 0.0
		for i := range data {
			diff := data[i][j] - mean
			variance += diff * diff
		}
		stddev := math.Sqrt(variance / n)

		flags[name] = math.Abs(latest[j]-mean) > 2*stddev
	}
	return flags
}
