package anomaly

import (
	"math"
	"sort"
)

// Нулевую дисперсию подменяем малым sigma, чтобы однородное окно
// давало одинаковые конечные оценки вместо деления на ноль
const minStddev = 1e-9

// estimator обученная по окну гауссова модель выбросов.
// Оценка - логарифм правдоподобия: чем отрицательнее, тем аномальнее.
type estimator struct {
	means   []float64
	stddevs []float64
}

// fit обучает оценщик на матрице признаков окна (строка - показание)
func fit(data [][]float64) *estimator {
	n := len(data)
	dims := len(data[0])

	means := make([]float64, dims)
	stddevs := make([]float64, dims)

	for j := 0; j < dims; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += data[i][j]
		}
		means[j] = sum / float64(n)

		variance := 0.0
		for i := 0; i < n; i++ {
			diff := data[i][j] - means[j]
			variance += diff * diff
		}
		variance /= float64(n)

		stddevs[j] = math.Sqrt(variance)
		if stddevs[j] < minStddev {
			stddevs[j] = minStddev
		}
	}

	return &estimator{means: means, stddevs: stddevs}
}

// scoreSample оценивает один вектор признаков под обученной моделью
func (e *estimator) scoreSample(vec []float64) float64 {
	score := 0.0
	for j, v := range vec {
		z := (v - e.means[j]) / e.stddevs[j]
		score += -0.5*z*z - math.Log(e.stddevs[j]*math.Sqrt(2*math.Pi))
	}
	return score
}

// scoreSamples оценивает все строки матрицы признаков
func (e *estimator) scoreSamples(data [][]float64) []float64 {
	scores := make([]float64, len(data))
	for i, vec := range data {
		scores[i] = e.scoreSample(vec)
	}
	return scores
}

// percentile вычисляет p-й процентиль с линейной интерполяцией
// между соседними рангами
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// sigmoid переводит оценку в значение (0,1) только для отображения
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
