package explain

import (
	"errors"
	"math"
	"testing"

	"poultry-monitor/internal/artifacts"
	"poultry-monitor/internal/features"
	"poultry-monitor/internal/models"
)

func testBundle(t *testing.T) *artifacts.Bundle {
	t.Helper()

	schema, err := features.NewSchema(features.BaseFeatures, features.EngineeredFeatures)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}

	return &artifacts.Bundle{
		Scaler: &artifacts.StandardScaler{
			Means:  []float64{30, 60, 12, 7, 18, 0.4},
			Scales: []float64{2, 10, 5, 0.5, 3.5, 0.2},
		},
		Forest: &artifacts.Forest{
			Classes:     []string{"Low", "Medium", "High"},
			NumFeatures: 6,
			Importances: []float64{0.2, 0.05, 0.4, 0.2, 0.05, 0.1},
			Trees: []artifacts.Tree{
				{Nodes: []artifacts.TreeNode{
					{Feature: 2, Threshold: 0.4, Left: 1, Right: 2},
					{Feature: -1, ClassDist: []float64{8, 1, 1}},
					{Feature: -1, ClassDist: []float64{1, 4, 5}},
				}},
			},
		},
		Schema: schema,
	}
}

func engineered(t *testing.T, temperature, humidity, ammonia, ph float64) models.EngineeredReading {
	t.Helper()
	er, err := features.Engineer(models.NewReading(temperature, humidity, ammonia, ph))
	if err != nil {
		t.Fatalf("Engineer: %v", err)
	}
	return er
}

func TestExplainCarriesAnomalyContext(t *testing.T) {
	e := New(testBundle(t))

	anomaly := &models.AnomalyResult{Score: -7.5, Threshold: -2, IsAnomaly: true, Generation: 3}
	explanation, err := e.Explain(engineered(t, 30, 60, 40, 7), anomaly)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}

	if !explanation.IsAnomaly {
		t.Error("explanation lost the anomaly flag")
	}
	if explanation.AnomalyScore != -7.5 {
		t.Errorf("anomaly score = %v, want -7.5", explanation.AnomalyScore)
	}
	if explanation.Prediction == "" {
		t.Error("explanation has no prediction")
	}
}

func TestExplainWithoutAnomalyResult(t *testing.T) {
	e := New(testBundle(t))

	explanation, err := e.Explain(engineered(t, 30, 60, 12, 7), nil)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if explanation.IsAnomaly {
		t.Error("explanation flagged anomaly without anomaly result")
	}
}

func TestExplainImportancesNormalized(t *testing.T) {
	e := New(testBundle(t))

	explanation, err := e.Explain(engineered(t, 35, 85, 22, 8.2), nil)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}

	if len(explanation.FeatureImportance) != 6 {
		t.Fatalf("importances has %d entries, want 6", len(explanation.FeatureImportance))
	}
	sum := 0.0
	for name, v := range explanation.FeatureImportance {
		if v < 0 {
			t.Errorf("importance of %s is negative: %v", name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importances sum to %v, want 1", sum)
	}
}

func TestExplainFeaturePreparationFailure(t *testing.T) {
	bundle := testBundle(t)
	// Скейлер другой размерности: подготовка признаков обязана упасть,
	// а не пройти дальше с кривым вектором
	bundle.Scaler = &artifacts.StandardScaler{
		Means:  []float64{0, 0},
		Scales: []float64{1, 1},
	}
	e := New(bundle)

	_, err := e.Explain(engineered(t, 30, 60, 12, 7), nil)
	if !errors.Is(err, ErrFeaturePreparation) {
		t.Fatalf("expected ErrFeaturePreparation, got %v", err)
	}
}

func TestExplainProbabilitiesSumToOne(t *testing.T) {
	e := New(testBundle(t))

	explanation, err := e.Explain(engineered(t, 31, 65, 13, 7.2), nil)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}

	sum := 0.0
	for _, p := range explanation.Probabilities {
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
}
