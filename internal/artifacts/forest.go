package artifacts

import (
	"fmt"
)

// TreeNode узел решающего дерева в выгруженной модели.
// Внутренний узел хранит признак и порог, лист - распределение классов.
type TreeNode struct {
	Feature   int       `json:"feature"`   // -1 для листа
	Threshold float64   `json:"threshold"` // порог разбиения, x <= threshold идет влево
	Left      int       `json:"left"`      // индексы дочерних узлов в Tree.Nodes
	Right     int       `json:"right"`
	ClassDist []float64 `json:"class_dist,omitempty"` // только у листьев
}

// Tree одно дерево ансамбля
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Forest обученный ансамбль деревьев классификации серьезности.
// Строится внешним провайдером моделей, здесь только потребляется.
type Forest struct {
	Classes     []string  `json:"classes"`
	NumFeatures int       `json:"n_features"`
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"feature_importances"`
}

// leafDist спускается по дереву до листа и возвращает его распределение
func (t *Tree) leafDist(vec []float64) []float64 {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Feature < 0 {
			return node.ClassDist
		}
		if vec[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// PredictProba возвращает вероятности классов для масштабированного вектора:
// усредненные по деревьям распределения листьев, нормированные к сумме 1
func (f *Forest) PredictProba(scaled []float64) ([]float64, error) {
	if len(scaled) != f.NumFeatures {
		return nil, fmt.Errorf("%w: forest expects %d features, got %d", ErrArtifactMismatch, f.NumFeatures, len(scaled))
	}

	acc := make([]float64, len(f.Classes))
	for i := range f.Trees {
		dist := f.Trees[i].leafDist(scaled)
		// Распределение листа нормируем отдельно: деревья могут
		// хранить счетчики выборок вместо долей
		sum := 0.0
		for _, c := range dist {
			sum += c
		}
		if sum == 0 {
			continue
		}
		for j, c := range dist {
			acc[j] += c / sum
		}
	}

	total := 0.0
	for _, v := range acc {
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: forest produced empty class distribution", ErrArtifactMismatch)
	}
	for j := range acc {
		acc[j] /= total
	}
	return acc, nil
}

func (f *Forest) validate() error {
	if len(f.Classes) == 0 {
		return fmt.Errorf("%w: forest has no classes", ErrArtifactMismatch)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrArtifactMismatch)
	}
	if f.NumFeatures <= 0 {
		return fmt.Errorf("%w: forest has invalid feature count %d", ErrArtifactMismatch, f.NumFeatures)
	}
	if len(f.Importances) != 0 && len(f.Importances) != f.NumFeatures {
		return fmt.Errorf("%w: forest importances length %d does not match %d features", ErrArtifactMismatch, len(f.Importances), f.NumFeatures)
	}
	for ti, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrArtifactMismatch, ti)
		}
		for ni, node := range tree.Nodes {
			if node.Feature >= f.NumFeatures {
				return fmt.Errorf("%w: tree %d node %d references feature %d", ErrArtifactMismatch, ti, ni, node.Feature)
			}
			if node.Feature < 0 {
				if len(node.ClassDist) != len(f.Classes) {
					return fmt.Errorf("%w: tree %d leaf %d has %d class weights, expected %d", ErrArtifactMismatch, ti, ni, len(node.ClassDist), len(f.Classes))
				}
				continue
			}
			if node.Left < 0 || node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("%w: tree %d node %d has out-of-range children", ErrArtifactMismatch, ti, ni)
			}
		}
	}
	return nil
}
