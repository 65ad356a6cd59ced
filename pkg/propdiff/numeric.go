package propdiff

import (
	"math"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/types"
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func isInt(v any) bool {
	switch v.(type) {
	case int, int32, int64:
		return true
	}
	return false
}

// shaped returns f in the numeric type of like when it fits.
func shaped(f float64, like any) any {
	if isInt(like) && f == math.Trunc(f) {
		return int(f)
	}
	return f
}

// combine applies a differential operand to a base value.
func combine(kind types.OpKind, base, arg any) (any, error) {
	b, ok1 := toFloat(base)
	a, ok2 := toFloat(arg)
	if !ok1 || !ok2 {
		return nil, errors.Newf(errors.ErrApplyFailed, "%s needs numbers, got %T and %T", kind, base, arg)
	}
	switch kind {
	case types.OpAdd:
		return shaped(b+a, base), nil
	case types.OpSubtract:
		return shaped(b-a, base), nil
	case types.OpMultiply:
		return shaped(b*a, base), nil
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "%s is not differential", kind)
}

// operand is the inverse of combine: the arg that turns ref into final.
func operand(kind types.OpKind, final, ref any) (any, error) {
	f, ok1 := toFloat(final)
	r, ok2 := toFloat(ref)
	if !ok1 || !ok2 {
		return nil, errors.Newf(errors.ErrInvalidInput, "%s needs numbers, got %T and %T", kind, final, ref)
	}
	switch kind {
	case types.OpAdd:
		return shaped(f-r, final), nil
	case types.OpSubtract:
		return shaped(r-f, final), nil
	case types.OpMultiply:
		if r == 0 {
			return nil, errors.New(errors.ErrInvalidInput, "cannot scale a zero reference")
		}
		return f / r, nil
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "%s is not differential", kind)
}
