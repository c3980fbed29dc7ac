package stream

import (
	"math/rand"

	"poultry-monitor/internal/models"
)

// Generator синтетический источник показаний датчиков для демо-режима.
// Распределения повторяют характер реальных условий птичника:
// температура около 30°C, влажность около 60%, аммиак около 12 ppm.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator создает генератор с заданным зерном
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Next генерирует очередное показание
func (g *Generator) Next() models.Reading {
	temperature := g.rng.NormFloat64()*2 + 30
	humidity := clamp(g.rng.NormFloat64()*10+60, 0, 100)
	ammonia := clamp(g.rng.NormFloat64()*5+12, 0, 100)

	r := models.NewReading(temperature, humidity, ammonia, 0)
	r.PH = g.generatePH(temperature, humidity, ammonia)
	return r
}

// generatePH выводит pH из остальных условий: жара, сырость и аммиак
// сдвигают среду в щелочную сторону
func (g *Generator) generatePH(temperature, humidity, ammonia float64) float64 {
	ph := 7.0
	if temperature > 30 {
		ph += g.uniform(0.5, 1.0)
	}
	if humidity > 70 {
		ph += g.uniform(0.3, 0.7)
	}
	if ammonia > 15 {
		ph += g.uniform(0.4, 0.8)
	}
	return ph + g.rng.NormFloat64()*0.2
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
