package stream

import (
	"testing"
	"time"
)

func TestGeneratorDeterministicWithSeed(t *testing.T) {
	a := NewGenerator(42)
	b := NewGenerator(42)

	for i := 0; i < 20; i++ {
		ra, rb := a.Next(), b.Next()
		if ra.Temperature != rb.Temperature || ra.Humidity != rb.Humidity ||
			ra.Ammonia != rb.Ammonia || ra.PH != rb.PH {
			t.Fatalf("generators with equal seed diverged at reading %d", i)
		}
	}
}

func TestGeneratorRanges(t *testing.T) {
	g := NewGenerator(1)

	for i := 0; i < 500; i++ {
		r := g.Next()
		if r.Humidity < 0 || r.Humidity > 100 {
			t.Fatalf("humidity %v out of [0, 100]", r.Humidity)
		}
		if r.Ammonia < 0 {
			t.Fatalf("ammonia %v negative", r.Ammonia)
		}
		if r.Timestamp.IsZero() {
			t.Fatal("reading has zero timestamp")
		}
	}
}

func TestGeneratePHShiftsAlkaline(t *testing.T) {
	g := NewGenerator(7)

	// Жара, сырость и высокий аммиак сдвигают pH вверх от базовых 7.0
	sumHot, sumCalm := 0.0, 0.0
	const n = 200
	for i := 0; i < n; i++ {
		sumHot += g.generatePH(35, 80, 20)
		sumCalm += g.generatePH(25, 50, 10)
	}

	if sumHot/n <= sumCalm/n {
		t.Errorf("stressed conditions mean pH %.2f not above calm %.2f", sumHot/n, sumCalm/n)
	}
	if avg := sumCalm / n; avg < 6.5 || avg > 7.5 {
		t.Errorf("calm conditions mean pH %.2f drifted from base 7.0", avg)
	}
}

func TestProducerDeliversAndStops(t *testing.T) {
	p := NewProducer(NewGenerator(42), time.Second)
	p.Start()

	select {
	case r := <-p.Readings():
		if r.Timestamp.IsZero() {
			t.Error("produced reading has zero timestamp")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reading produced within 3s at 1s interval")
	}

	p.Stop()
	p.Stop() // повторная остановка безопасна

	// После остановки канал закрывается
	for {
		if _, ok := <-p.Readings(); !ok {
			return
		}
	}
}

func TestProducerEnforcesMinimumInterval(t *testing.T) {
	p := NewProducer(NewGenerator(1), 10*time.Millisecond)
	if p.interval != time.Second {
		t.Errorf("interval = %v, want clamped to 1s", p.interval)
	}
}
