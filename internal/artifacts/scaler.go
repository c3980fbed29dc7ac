package artifacts

import (
	"fmt"
)

// StandardScaler параметры обученного стандартизатора признаков.
// Поля соответствуют JSON-выгрузке обученного скейлера.
type StandardScaler struct {
	Means  []float64 `json:"mean"`
	Scales []float64 `json:"scale"`
}

// Transform применяет стандартизацию к вектору признаков.
// Нулевой масштаб только центрирует признак.
func (s *StandardScaler) Transform(vec []float64) ([]float64, error) {
	if len(vec) != len(s.Means) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrArtifactMismatch, len(s.Means), len(vec))
	}

	scaled := make([]float64, len(vec))
	for i, v := range vec {
		if s.Scales[i] != 0 {
			scaled[i] = (v - s.Means[i]) / s.Scales[i]
		} else {
			scaled[i] = v - s.Means[i]
		}
	}
	return scaled, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Means) == 0 {
		return fmt.Errorf("%w: scaler has no parameters", ErrArtifactMismatch)
	}
	if len(s.Means) != len(s.Scales) {
		return fmt.Errorf("%w: scaler mean/scale length mismatch: %d vs %d", ErrArtifactMismatch, len(s.Means), len(s.Scales))
	}
	return nil
}
