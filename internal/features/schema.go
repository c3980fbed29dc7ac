package features

import (
	"fmt"
)

// Schema типизированная схема признаков с сохранением порядка.
// Валидируется один раз при старте, дальше порядок неизменен.
type Schema struct {
	all []string
}

// NewSchema строит схему из записи конфигурации признаков.
// Отклоняет неизвестные имена и дубликаты: рассогласованная схема
// развалила бы соответствие скейлера и классификатора.
func NewSchema(baseNames, engineeredNames []string) (Schema, error) {
	known := map[string]bool{
		Temperature:             true,
		Humidity:                true,
		Ammonia:                 true,
		PH:                      true,
		TempHumidityInteraction: true,
		AmmoniaTempRatio:        true,
	}

	seen := make(map[string]bool)
	all := make([]string, 0, len(baseNames)+len(engineeredNames))
	for _, name := range append(append([]string{}, baseNames...), engineeredNames...) {
		if !known[name] {
			return Schema{}, fmt.Errorf("unknown feature %q in schema", name)
		}
		if seen[name] {
			return Schema{}, fmt.Errorf("duplicate feature %q in schema", name)
		}
		seen[name] = true
		all = append(all, name)
	}

	if len(all) == 0 {
		return Schema{}, fmt.Errorf("schema has no features")
	}

	return Schema{all: all}, nil
}

// DefaultSchema схема по умолчанию: базовые плюс производные признаки
func DefaultSchema() Schema {
	s, err := NewSchema(BaseFeatures, EngineeredFeatures)
	if err != nil {
		panic(err) // константные имена, не может случиться
	}
	return s
}

// All возвращает все признаки в объявленном порядке
func (s Schema) All() []string {
	return append([]string{}, s.all...)
}

// Len количество признаков в схеме
func (s Schema) Len() int {
	return len(s.all)
}
