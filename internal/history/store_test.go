package history

import (
	"testing"
	"time"

	"poultry-monitor/internal/features"
	"poultry-monitor/internal/models"
)

func entry(t *testing.T, ammonia float64, isAnomaly bool) models.HistoryEntry {
	t.Helper()
	er, err := features.Engineer(models.NewReading(30, 60, ammonia, 7))
	if err != nil {
		t.Fatalf("Engineer: %v", err)
	}

	e := models.HistoryEntry{Reading: er}
	if isAnomaly {
		e.Anomaly = &models.AnomalyResult{Score: -5, Threshold: -1, IsAnomaly: true, Generation: 1}
	}
	return e
}

func TestAppendPreservesOrder(t *testing.T) {
	store := NewStore(0)

	for i := 0; i < 5; i++ {
		store.Append(entry(t, float64(10+i), false))
	}

	window := store.Window()
	if len(window) != 5 {
		t.Fatalf("window length = %d, want 5", len(window))
	}
	for i := range window {
		if window[i].Ammonia != float64(10+i) {
			t.Errorf("window[%d].Ammonia = %v, want %v", i, window[i].Ammonia, 10+i)
		}
	}
}

func TestUnboundedGrowth(t *testing.T) {
	store := NewStore(0)
	for i := 0; i < 250; i++ {
		store.Append(entry(t, 12, false))
	}
	if store.Len() != 250 {
		t.Errorf("length = %d, want 250 with capacity 0", store.Len())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	store := NewStore(3)

	for i := 0; i < 5; i++ {
		store.Append(entry(t, float64(i), false))
	}

	if store.Len() != 3 {
		t.Fatalf("length = %d, want 3", store.Len())
	}
	window := store.Window()
	for i, want := range []float64{2, 3, 4} {
		if window[i].Ammonia != want {
			t.Errorf("window[%d].Ammonia = %v, want %v", i, window[i].Ammonia, want)
		}
	}
	// Счетчик сессии учитывает и вытесненные записи
	if store.Status().TotalReadings != 5 {
		t.Errorf("total readings = %d, want 5", store.Status().TotalReadings)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	store := NewStore(0)
	store.Append(entry(t, 12, false))

	snapshot := store.Snapshot()
	snapshot[0].Reading.Ammonia = 999

	if window := store.Window(); window[0].Ammonia == 999 {
		t.Error("mutating the snapshot changed the store")
	}
}

func TestRecent(t *testing.T) {
	store := NewStore(0)
	for i := 0; i < 10; i++ {
		store.Append(entry(t, float64(i), false))
	}

	recent := store.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("recent length = %d, want 3", len(recent))
	}
	if recent[0].Reading.Ammonia != 7 || recent[2].Reading.Ammonia != 9 {
		t.Errorf("recent returned wrong tail: %v..%v", recent[0].Reading.Ammonia, recent[2].Reading.Ammonia)
	}

	if got := store.Recent(0); len(got) != 10 {
		t.Errorf("Recent(0) length = %d, want all 10", len(got))
	}
	if got := store.Recent(100); len(got) != 10 {
		t.Errorf("Recent(100) length = %d, want all 10", len(got))
	}
}

func TestLatest(t *testing.T) {
	store := NewStore(0)

	if _, ok := store.Latest(); ok {
		t.Error("Latest on empty store must report false")
	}

	store.Append(entry(t, 12, false))
	store.Append(entry(t, 25, true))

	latest, ok := store.Latest()
	if !ok {
		t.Fatal("Latest returned false on non-empty store")
	}
	if latest.Reading.Ammonia != 25 {
		t.Errorf("latest ammonia = %v, want 25", latest.Reading.Ammonia)
	}
}

func TestStatusCountsAnomalies(t *testing.T) {
	store := NewStore(0)
	store.Append(entry(t, 12, false))
	store.Append(entry(t, 40, true))
	store.Append(entry(t, 13, false))

	status := store.Status()
	if status.TotalReadings != 3 {
		t.Errorf("total readings = %d, want 3", status.TotalReadings)
	}
	if status.AnomaliesDetected != 1 {
		t.Errorf("anomalies detected = %d, want 1", status.AnomaliesDetected)
	}
	if status.LastUpdate.IsZero() || time.Since(status.LastUpdate) > time.Minute {
		t.Errorf("last update %v looks wrong", status.LastUpdate)
	}
}
