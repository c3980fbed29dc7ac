package classifier

import (
	"fmt"

	"poultry-monitor/internal/artifacts"
	"poultry-monitor/internal/features"
	"poultry-monitor/internal/models"
)

// Classifier классификатор серьезности поверх загруженных артефактов.
// Обучение выполняется внешним провайдером моделей, здесь только инференс.
type Classifier struct {
	bundle *artifacts.Bundle
}

// New создает классификатор из проверенного набора артефактов
func New(bundle *artifacts.Bundle) *Classifier {
	return &Classifier{bundle: bundle}
}

// Schema схема признаков, на которой обучены артефакты
func (c *Classifier) Schema() features.Schema {
	return c.bundle.Schema
}

// Classify предсказывает метку серьезности для полностью подготовленного
// показания. Стандартизация применяется всегда до классификации: скейлер
// и лес обучены на одном и том же порядке признаков.
func (c *Classifier) Classify(er models.EngineeredReading) (models.ClassificationResult, error) {
	vec, err := features.Vector(er, c.bundle.Schema)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("failed to prepare feature vector: %w", err)
	}

	scaled, err := c.bundle.Scaler.Transform(vec)
	if err != nil {
		return models.ClassificationResult{}, err
	}

	proba, err := c.bundle.Forest.PredictProba(scaled)
	if err != nil {
		return models.ClassificationResult{}, err
	}

	probabilities := make(map[string]float64, len(proba))
	best := 0
	for i, class := range c.bundle.Forest.Classes {
		probabilities[class] = proba[i]
		if proba[i] > proba[best] {
			best = i
		}
	}

	return models.ClassificationResult{
		Label:         c.bundle.Forest.Classes[best],
		Probabilities: probabilities,
	}, nil
}
