package engine

import (
	"fmt"
	"strings"

	"nexus_crm_backend/internal/criteria/repository"
)

// Evaluate applies a condition predicate to the fact set. It returns an
// error for structurally unusable conditions (unknown operator, unknown
// field, type mismatch) so the caller can skip the criterion and keep the
// scoring pass alive.
func Evaluate(cond repository.Condition, facts Facts) (bool, error) {
	fact, ok := facts[cond.Field]

	// present is the only operator defined for an absent fact.
	if cond.Operator == repository.OpPresent {
		return ok && !isEmpty(fact), nil
	}
	if !ok {
		return false, fmt.Errorf("unknown fact field %q", cond.Field)
	}

	switch cond.Operator {
	case repository.OpEq:
		return equal(fact, cond.Value)
	case repository.OpNeq:
		eq, err := equal(fact, cond.Value)
		return !eq, err
	case repository.OpGt, repository.OpGte, repository.OpLt, repository.OpLte:
		return compare(cond.Operator, fact, cond.Value)
	case repository.OpContains:
		return contains(fact, cond.Value)
	case repository.OpIn:
		return within(fact, cond.Value)
	default:
		return false, fmt.Errorf("unknown operator %q", cond.Operator)
	}
}

func isEmpty(fact interface{}) bool {
	switch v := fact.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	default:
		return false
	}
}

// equal compares numerically when both sides are numeric, otherwise by
// case-insensitive string form. JSONB round-trips numbers as float64, so a
// stored 5000 must still match an integer fact.
func equal(fact, value interface{}) (bool, error) {
	if fn, okF := toFloat(fact); okF {
		if vn, okV := toFloat(value); okV {
			return fn == vn, nil
		}
	}
	fs, okF := toString(fact)
	vs, okV := toString(value)
	if !okF || !okV {
		return false, fmt.Errorf("incomparable types %T and %T", fact, value)
	}
	return strings.EqualFold(fs, vs), nil
}

func compare(op string, fact, value interface{}) (bool, error) {
	fn, okF := toFloat(fact)
	vn, okV := toFloat(value)
	if !okF || !okV {
		return false, fmt.Errorf("operator %q needs numeric operands, got %T and %T", op, fact, value)
	}

	switch op {
	case repository.OpGt:
		return fn > vn, nil
	case repository.OpGte:
		return fn >= vn, nil
	case repository.OpLt:
		return fn < vn, nil
	default:
		return fn <= vn, nil
	}
}

// contains matches list membership when the fact is a list, and substring
// containment when it is a string.
func contains(fact, value interface{}) (bool, error) {
	needle, ok := toString(value)
	if !ok {
		return false, fmt.Errorf("contains needs a scalar value, got %T", value)
	}

	switch haystack := fact.(type) {
	case []string:
		for _, item := range haystack {
			if strings.EqualFold(item, needle) {
				return true, nil
			}
		}
		return false, nil
	case []interface{}:
		for _, item := range haystack {
			if s, ok := toString(item); ok && strings.EqualFold(s, needle) {
				return true, nil
			}
		}
		return false, nil
	case string:
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)), nil
	default:
		return false, fmt.Errorf("contains needs a list or string fact, got %T", fact)
	}
}

// within matches a scalar fact against a list value; a list fact matches
// when any of its elements is in the list value.
func within(fact, value interface{}) (bool, error) {
	options, ok := value.([]interface{})
	if !ok {
		return false, fmt.Errorf("in needs a list value, got %T", value)
	}

	var candidates []interface{}
	switch f := fact.(type) {
	case []string:
		for _, item := range f {
			candidates = append(candidates, item)
		}
	case []interface{}:
		candidates = f
	default:
		candidates = []interface{}{fact}
	}

	for _, candidate := range candidates {
		for _, option := range options {
			match, err := equal(candidate, option)
			if err != nil {
				return false, err
			}
			if match {
				return true, nil
			}
		}
	}
	return false, nil
}

func toFloat(v interface{}) (float64, bool) {
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
	default:
		return 0, false
	}
}

func toString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return fmt.Sprintf("%t", s), true
	case int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", s), true
	default:
		return "", false
	}
}
