package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"poultry-monitor/internal/features"
	"poultry-monitor/internal/models"
)

// Параметры по умолчанию прогноза трендов
const (
	DefaultSequenceLength   = 24
	DefaultPredictionLength = 24
)

// ErrInsufficientHistory окно короче sequence_length, прогноз не строится
var ErrInsufficientHistory = errors.New("insufficient history for forecast")

// regression коэффициенты линейной регрессии y = a*x + b по одному признаку
type regression struct {
	a float64
	b float64
}

// Forecaster прогнозирует значения базовых признаков по последним
// sequenceLength показаниям методом наименьших квадратов
type Forecaster struct {
	sequenceLength   int
	predictionLength int
}

// NewForecaster создает прогнозатор с заданными длинами окна и горизонта
func NewForecaster(sequenceLength, predictionLength int) *Forecaster {
	if sequenceLength < 2 {
		sequenceLength = DefaultSequenceLength
	}
	if predictionLength <= 0 {
		predictionLength = DefaultPredictionLength
	}
	return &Forecaster{
		sequenceLength:   sequenceLength,
		predictionLength: predictionLength,
	}
}

// Predict строит прогноз следующих predictionLength показаний.
// Требует не меньше sequenceLength записей; шаг прогноза - средний
// интервал между показаниями хвоста окна.
func (f *Forecaster) Predict(window []models.EngineeredReading) ([]models.ForecastPoint, error) {
	if len(window) < f.sequenceLength {
		return nil, fmt.Errorf("%w: have %d readings, need %d", ErrInsufficientHistory, len(window), f.sequenceLength)
	}

	tail := window[len(window)-f.sequenceLength:]

	// Регрессия по каждому базовому признаку отдельно
	regressions := make(map[string]regression, len(features.BaseFeatures))
	for _, name := range features.BaseFeatures {
		ys := make([]float64, len(tail))
		for i := range tail {
			v, err := features.Value(tail[i], name)
			if err != nil {
				return nil, err
			}
			ys[i] = v
		}
		regressions[name] = leastSquares(ys)
	}

	step := meanInterval(tail)
	last := tail[len(tail)-1].Timestamp

	points := make([]models.ForecastPoint, f.predictionLength)
	for k := 0; k < f.predictionLength; k++ {
		x := float64(f.sequenceLength + k)
		values := make(map[string]float64, len(regressions))
		for name, reg := range regressions {
			values[name] = reg.a*x + reg.b
		}
		points[k] = models.ForecastPoint{
			Timestamp: last.Add(time.Duration(k+1) * step),
			Values:    values,
		}
	}
	return points, nil
}

// leastSquares вычисляет коэффициенты наклона и сдвига для ряда,
// где x - индекс точки внутри окна.
// a = (n*sum(x*y) - sum(x)*sum(y)) / (n*sum(x^2) - (sum(x))^2)
// b = (sum(y) - a*sum(x)) / n
func leastSquares(ys []float64) regression {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if math.Abs(denominator) < 1e-10 {
		// Все x одинаковы быть не могут при n >= 2, но нулевой
		// наклон - безопасный ответ
		return regression{a: 0, b: sumY / n}
	}

	a := (n*sumXY - sumX*sumY) / denominator
	b := (sumY - a*sumX) / n
	return regression{a: a, b: b}
}

// meanInterval средний интервал между соседними показаниями хвоста
func meanInterval(tail []models.EngineeredReading) time.Duration {
	if len(tail) < 2 {
		return time.Second
	}
	total := tail[len(tail)-1].Timestamp.Sub(tail[0].Timestamp)
	step := total / time.Duration(len(tail)-1)
	if step <= 0 {
		return time.Second
	}
	return step
}
