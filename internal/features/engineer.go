package features

import (
	"errors"
	"fmt"
	"math"

	"poultry-monitor/internal/models"
)

// Имена признаков фиксированы и должны совпадать с feature_config.json
const (
	Temperature             = "temperature_C"
	Humidity                = "humidity_%"
	Ammonia                 = "ammonia_ppm"
	PH                      = "ph"
	TempHumidityInteraction = "temp_humidity_interaction"
	AmmoniaTempRatio        = "ammonia_temp_ratio"
)

// BaseFeatures базовые признаки в объявленном порядке
var BaseFeatures = []string{Temperature, Humidity, Ammonia, PH}

// EngineeredFeatures производные признаки в объявленном порядке
var EngineeredFeatures = []string{TempHumidityInteraction, AmmoniaTempRatio}

// ErrInvalidFeature производный признак математически не определен
var ErrInvalidFeature = errors.New("invalid feature")

// ErrFeatureNotPrepared требуемый признак отсутствует в подготовленном векторе
var ErrFeatureNotPrepared = errors.New("feature not prepared")

// Engineer вычисляет производные признаки из сырого показания.
// Чистая функция: одно и то же показание всегда дает тот же результат.
// Показание с нулевой температурой отклоняется, подмена значения по
// умолчанию исказила бы вход классификатора.
func Engineer(r models.Reading) (models.EngineeredReading, error) {
	if r.Temperature == 0 {
		return models.EngineeredReading{}, fmt.Errorf("%w: ammonia_temp_ratio undefined for temperature 0", ErrInvalidFeature)
	}
	if !finite(r.Temperature) || !finite(r.Humidity) || !finite(r.Ammonia) || !finite(r.PH) {
		return models.EngineeredReading{}, fmt.Errorf("%w: reading contains non-finite values", ErrInvalidFeature)
	}

	return models.EngineeredReading{
		Reading:                 r,
		AmmoniaTempRatio:        r.Ammonia / r.Temperature,
		TempHumidityInteraction: r.Temperature * r.Humidity / 100,
	}, nil
}

// Value возвращает значение именованного признака показания
func Value(er models.EngineeredReading, name string) (float64, error) {
	switch name {
	case Temperature:
		return er.Temperature, nil
	case Humidity:
		return er.Humidity, nil
	case Ammonia:
		return er.Ammonia, nil
	case PH:
		return er.PH, nil
	case TempHumidityInteraction:
		return er.TempHumidityInteraction, nil
	case AmmoniaTempRatio:
		return er.AmmoniaTempRatio, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrFeatureNotPrepared, name)
	}
}

// Vector собирает вектор признаков в порядке, заданном схемой
func Vector(er models.EngineeredReading, schema Schema) ([]float64, error) {
	names := schema.All()
	vec := make([]float64, len(names))
	for i, name := range names {
		v, err := Value(er, name)
		if err != nil {
			return nil, err
		}
		vec[i] = v
	}
	return vec, nil
}

// BaseVector собирает вектор только базовых признаков
// (детектор аномалий обучается на сырых колонках)
func BaseVector(er models.EngineeredReading) []float64 {
	return []float64{er.Temperature, er.Humidity, er.Ammonia, er.PH}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
