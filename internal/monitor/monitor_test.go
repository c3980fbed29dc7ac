package monitor

import (
	"testing"
	"time"

	"poultry-monitor/internal/anomaly"
	"poultry-monitor/internal/artifacts"
	"poultry-monitor/internal/classifier"
	"poultry-monitor/internal/features"
	"poultry-monitor/internal/history"
	"poultry-monitor/internal/models"
)

func collectResults(t *testing.T, m *Monitor, n int) []models.HistoryEntry {
	t.Helper()
	entries := make([]models.HistoryEntry, 0, n)
	timeout := time.After(5 * time.Second)
	for len(entries) < n {
		select {
		case entry := <-m.Results():
			entries = append(entries, entry)
		case <-timeout:
			t.Fatalf("timed out waiting for results: got %d of %d", len(entries), n)
		}
	}
	return entries
}

func TestPipelineWithoutClassifier(t *testing.T) {
	store := history.NewStore(0)
	m := New(nil, anomaly.NewScorer(), store)
	m.Start()
	defer m.Stop()

	for i := 0; i < 10; i++ {
		m.Ingest(models.NewReading(30, 60, 12, 7))
	}
	entries := collectResults(t, m, 10)

	// Первые девять записей без результата аномальности
	for i := 0; i < 9; i++ {
		if entries[i].Anomaly != nil {
			t.Errorf("entry %d has anomaly result before minimum window", i)
		}
		if entries[i].Classification != nil {
			t.Errorf("entry %d has classification with classifier disabled", i)
		}
	}

	// Десятая запись получает оценку первого поколения
	last := entries[9]
	if last.Anomaly == nil {
		t.Fatal("entry 10 has no anomaly result")
	}
	if last.Anomaly.Generation != 1 {
		t.Errorf("generation = %d, want 1", last.Anomaly.Generation)
	}
	if last.Anomaly.IsAnomaly {
		t.Error("representative reading flagged anomalous")
	}

	if store.Len() != 10 {
		t.Errorf("history length = %d, want 10", store.Len())
	}
	status := m.Status()
	if status.TotalReadings != 10 {
		t.Errorf("total readings = %d, want 10", status.TotalReadings)
	}
	if status.ModelGeneration != 1 {
		t.Errorf("status generation = %d, want 1", status.ModelGeneration)
	}
}

func TestPipelineRejectsInvalidReading(t *testing.T) {
	store := history.NewStore(0)
	m := New(nil, anomaly.NewScorer(), store)
	m.Start()
	defer m.Stop()

	m.Ingest(models.NewReading(0, 60, 12, 7)) // нулевая температура
	m.Ingest(models.NewReading(30, 60, 12, 7))

	entries := collectResults(t, m, 1)
	if entries[0].Reading.Temperature != 30 {
		t.Errorf("unexpected entry passed the pipeline: %+v", entries[0].Reading)
	}
	if store.Len() != 1 {
		t.Errorf("history length = %d, want 1 (invalid reading rejected)", store.Len())
	}
}

func TestPipelineDetectsInjectedSpike(t *testing.T) {
	store := history.NewStore(0)
	m := New(nil, anomaly.NewScorer(), store)
	m.Start()
	defer m.Stop()

	for i := 0; i < 9; i++ {
		m.Ingest(models.NewReading(30, 60, 12, 7))
	}
	m.Ingest(models.NewReading(30, 60, 40, 7))

	entries := collectResults(t, m, 10)
	last := entries[9]
	if last.Anomaly == nil {
		t.Fatal("spike entry has no anomaly result")
	}
	if !last.Anomaly.IsAnomaly {
		t.Error("injected ammonia spike not flagged")
	}
	if !last.Anomaly.FeatureFlags[features.Ammonia] {
		t.Error("ammonia feature flag not set")
	}
	if m.Status().AnomaliesDetected != 1 {
		t.Errorf("anomalies detected = %d, want 1", m.Status().AnomaliesDetected)
	}
}

func TestPipelineClassifiesReadings(t *testing.T) {
	schema, err := features.NewSchema(features.BaseFeatures, features.EngineeredFeatures)
	if err != nil {
		t.Fatal(err)
	}
	bundle := &artifacts.Bundle{
		Scaler: &artifacts.StandardScaler{
			Means:  make([]float64, 6),
			Scales: []float64{1, 1, 1, 1, 1, 1},
		},
		Forest: &artifacts.Forest{
			Classes:     []string{"Low", "Medium", "High"},
			NumFeatures: 6,
			Trees: []artifacts.Tree{
				{Nodes: []artifacts.TreeNode{
					{Feature: 2, Threshold: 14, Left: 1, Right: 2},
					{Feature: -1, ClassDist: []float64{1, 0, 0}},
					{Feature: -1, ClassDist: []float64{0, 0, 1}},
				}},
			},
		},
		Schema: schema,
	}

	store := history.NewStore(0)
	m := New(classifier.New(bundle), anomaly.NewScorer(), store)
	m.Start()
	defer m.Stop()

	m.Ingest(models.NewReading(30, 60, 12, 7))
	entries := collectResults(t, m, 1)

	if entries[0].Classification == nil {
		t.Fatal("entry has no classification")
	}
	if entries[0].Classification.Label != "Low" {
		t.Errorf("label = %q, want Low", entries[0].Classification.Label)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := New(nil, anomaly.NewScorer(), history.NewStore(0))
	m.Start()
	m.Stop()
	m.Stop() // повторная остановка не должна паниковать
}
