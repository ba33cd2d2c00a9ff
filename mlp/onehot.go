package mlp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// OneHot expands labels into a len(labels) x classes indicator matrix.
func OneHot(labels []int, classes int) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrShape)
	}
	if classes <= 0 {
		return nil, fmt.Errorf("%w: %d classes", ErrShape, classes)
	}
	out := mat.NewDense(len(labels), classes, nil)
	for i, l := range labels {
		if l < 0 || l >= classes {
			return nil, fmt.Errorf("mlp: label %d of row %d outside [0, %d)", l, i, classes)
		}
		out.Set(i, l, 1)
	}
	return out, nil
}
