package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"poultry-monitor/internal/features"
	"poultry-monitor/internal/models"
)

func trendWindow(t *testing.T, n int, start time.Time, step time.Duration) []models.EngineeredReading {
	t.Helper()
	window := make([]models.EngineeredReading, n)
	for i := 0; i < n; i++ {
		// Аммиак растет линейно, остальные условия стабильны
		r := models.NewReading(30, 60, 10+0.5*float64(i), 7)
		r.Timestamp = start.Add(time.Duration(i) * step)
		er, err := features.Engineer(r)
		if err != nil {
			t.Fatalf("Engineer: %v", err)
		}
		window[i] = er
	}
	return window
}

func TestPredictInsufficientHistory(t *testing.T) {
	f := NewForecaster(24, 24)
	window := trendWindow(t, 23, time.Now(), time.Second)

	_, err := f.Predict(window)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestPredictContinuesLinearTrend(t *testing.T) {
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	f := NewForecaster(24, 4)
	window := trendWindow(t, 24, start, 2*time.Second)

	points, err := f.Predict(window)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}

	// Идеально линейный ряд продолжается без ошибки аппроксимации
	for k, point := range points {
		want := 10 + 0.5*float64(24+k)
		got := point.Values[features.Ammonia]
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("point %d ammonia = %v, want %v", k, got, want)
		}
		if math.Abs(point.Values[features.Temperature]-30) > 1e-9 {
			t.Errorf("point %d temperature = %v, want 30", k, point.Values[features.Temperature])
		}
	}

	// Метки времени продолжают шаг окна
	wantFirst := start.Add(23 * 2 * time.Second).Add(2 * time.Second)
	if !points[0].Timestamp.Equal(wantFirst) {
		t.Errorf("first forecast timestamp = %v, want %v", points[0].Timestamp, wantFirst)
	}
}

func TestPredictUsesTailOnly(t *testing.T) {
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	f := NewForecaster(24, 1)

	// Сотня шумных точек в начале и линейный хвост: прогноз строится
	// только по хвосту окна
	noisy := trendWindow(t, 100, start, time.Second)
	for i := range noisy {
		noisy[i].Ammonia = 50
	}
	tail := trendWindow(t, 24, start.Add(100*time.Second), time.Second)
	window := append(noisy, tail...)

	points, err := f.Predict(window)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	want := 10 + 0.5*24.0
	if math.Abs(points[0].Values[features.Ammonia]-want) > 1e-9 {
		t.Errorf("forecast ammonia = %v, want %v (tail only)", points[0].Values[features.Ammonia], want)
	}
}

func TestLeastSquaresFlatSeries(t *testing.T) {
	reg := leastSquares([]float64{5, 5, 5, 5})
	if reg.a != 0 {
		t.Errorf("slope = %v, want 0 for flat series", reg.a)
	}
	if reg.b != 5 {
		t.Errorf("intercept = %v, want 5", reg.b)
	}
}
