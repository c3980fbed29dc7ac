package explain

import (
	"errors"
	"fmt"
	"math"

	"poultry-monitor/internal/artifacts"
	"poultry-monitor/internal/features"
	"poultry-monitor/internal/models"
)

// ErrFeaturePreparation подготовка признаков для объяснения не удалась.
// Вызывающий пропускает объяснение и продолжает мониторинг, падение
// всего пайплайна из-за одного объяснения недопустимо.
var ErrFeaturePreparation = errors.New("feature preparation failed")

// Explainer поставщик объяснений последней классификации.
// Вклад признака считается как важность признака в обученном лесе,
// взвешенная модулем стандартизованного значения: детерминированная
// величина для отображения, не калиброванные SHAP-значения.
type Explainer struct {
	bundle *artifacts.Bundle
}

// New создает поставщика объяснений над загруженными артефактами
func New(bundle *artifacts.Bundle) *Explainer {
	return &Explainer{bundle: bundle}
}

// Explain собирает объяснение для одного показания: предсказание с
// вероятностями, контекст аномальности и вклад каждого признака
func (e *Explainer) Explain(er models.EngineeredReading, anomaly *models.AnomalyResult) (models.Explanation, error) {
	vec, err := features.Vector(er, e.bundle.Schema)
	if err != nil {
		return models.Explanation{}, fmt.Errorf("%w: %v", ErrFeaturePreparation, err)
	}

	scaled, err := e.bundle.Scaler.Transform(vec)
	if err != nil {
		return models.Explanation{}, fmt.Errorf("%w: %v", ErrFeaturePreparation, err)
	}

	proba, err := e.bundle.Forest.PredictProba(scaled)
	if err != nil {
		return models.Explanation{}, err
	}

	probabilities := make(map[string]float64, len(proba))
	best := 0
	for i, class := range e.bundle.Forest.Classes {
		probabilities[class] = proba[i]
		if proba[i] > proba[best] {
			best = i
		}
	}

	explanation := models.Explanation{
		Prediction:        e.bundle.Forest.Classes[best],
		Probabilities:     probabilities,
		FeatureImportance: e.importances(scaled),
	}
	if anomaly != nil {
		explanation.IsAnomaly = anomaly.IsAnomaly
		explanation.AnomalyScore = anomaly.Score
	}
	return explanation, nil
}

// importances распределяет важности леса по признакам показания,
// нормируя взвешенные величины к сумме 1
func (e *Explainer) importances(scaled []float64) map[string]float64 {
	names := e.bundle.Schema.All()
	raw := make([]float64, len(names))

	total := 0.0
	for i := range names {
		weight := 1.0
		if len(e.bundle.Forest.Importances) == len(names) {
			weight = e.bundle.Forest.Importances[i]
		}
		raw[i] = weight * math.Abs(scaled[i])
		total += raw[i]
	}

	result := make(map[string]float64, len(names))
	for i, name := range names {
		if total > 0 {
			result[name] = raw[i] / total
		} else {
			result[name] = 0
		}
	}
	return result
}
