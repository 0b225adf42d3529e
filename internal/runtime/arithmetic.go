package runtime

import (
	"fmt"

	"github.com/aretw0/abacus/pkg/domain"
)

// Apply performs a single binary operation and rounds the result to domain.Precision places.
// Dividing by zero fails with domain.ErrDivideByZero.
func Apply(op domain.Operator, a, b float64) (float64, error) {
	switch op {
	case domain.OpAdd:
		return domain.Round(a + b), nil
	case domain.OpSubtract:
		return domain.Round(a - b), nil
	case domain.OpMultiply:
		return domain.Round(a * b), nil
	case domain.OpDivide:
		if b == 0 {
			return 0, domain.ErrDivideByZero
		}
		return domain.Round(a / b), nil
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnknownOperator, op)
}
