package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"poultry-monitor/internal/features"
)

// ErrArtifactMissing файл артефакта модели отсутствует
var ErrArtifactMissing = errors.New("model artifact missing")

// ErrArtifactMismatch артефакты модели несогласованы между собой
var ErrArtifactMismatch = errors.New("model artifact mismatch")

// Имена файлов артефактов, как их сохраняет провайдер моделей
const (
	scalerFile        = "scaler.json"
	forestFile        = "severity_model.json"
	featureConfigFile = "feature_config.json"
)

// featureConfig запись конфигурации признаков из feature_config.json
type featureConfig struct {
	FeatureNames       []string `json:"feature_names"`
	EngineeredFeatures []string `json:"engineered_features"`
}

// Bundle загруженный и проверенный набор артефактов модели
type Bundle struct {
	Scaler *StandardScaler
	Forest *Forest
	Schema features.Schema
}

// Load читает скейлер, классификатор и конфигурацию признаков из каталога
// и проверяет их взаимную согласованность. Скейлер и классификатор обязаны
// быть обучены на одном и том же порядке признаков, поэтому любое
// расхождение размерностей отклоняется целиком.
func Load(dir string) (*Bundle, error) {
	var cfg featureConfig
	if err := readJSON(filepath.Join(dir, featureConfigFile), &cfg); err != nil {
		return nil, err
	}

	schema, err := features.NewSchema(cfg.FeatureNames, cfg.EngineeredFeatures)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactMismatch, err)
	}

	var scaler StandardScaler
	if err := readJSON(filepath.Join(dir, scalerFile), &scaler); err != nil {
		return nil, err
	}
	if err := scaler.validate(); err != nil {
		return nil, err
	}

	var forest Forest
	if err := readJSON(filepath.Join(dir, forestFile), &forest); err != nil {
		return nil, err
	}
	if err := forest.validate(); err != nil {
		return nil, err
	}

	// Перекрестные проверки размерностей
	if len(scaler.Means) != schema.Len() {
		return nil, fmt.Errorf("%w: scaler trained on %d features, schema declares %d", ErrArtifactMismatch, len(scaler.Means), schema.Len())
	}
	if forest.NumFeatures != schema.Len() {
		return nil, fmt.Errorf("%w: forest trained on %d features, schema declares %d", ErrArtifactMismatch, forest.NumFeatures, schema.Len())
	}

	return &Bundle{
		Scaler: &scaler,
		Forest: &forest,
		Schema: schema,
	}, nil
}

func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactMismatch, path, err)
	}
	return nil
}
