// Package condition evaluates trigger and branch rules against event
// payloads. Evaluation is pure: same rule and payload always produce the same
// answer, and nothing is ever thrown — malformed rules are a configuration
// problem rejected at validation time, before evaluation can see them.
package condition

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/cadencehq/cadence/pkg/models"
)

// Evaluate applies a single validated rule to an event payload.
func Evaluate(rule models.Rule, payload map[string]any) bool {
	value, present := payload[rule.Field]

	switch rule.Operator {
	case models.OperatorExists:
		return present
	case models.OperatorNotExists:
		return !present
	case models.OperatorEquals:
		return present && equal(value, rule.Value)
	case models.OperatorContains:
		return present && contains(value, rule.Value)
	case models.OperatorGreaterThan:
		return present && numericCompare(value, rule.Value, func(a, b float64) bool { return a > b })
	case models.OperatorLessThan:
		return present && numericCompare(value, rule.Value, func(a, b float64) bool { return a < b })
	default:
		// Unknown operators never reach evaluation on validated rules.
		return false
	}
}

// equal compares two payload values. Numeric types compare by value so a
// JSON-decoded float64(500) equals int(500); everything else falls back to
// deep equality.
func equal(left, right any) bool {
	leftNum, leftOK := toFloat64(left)
	rightNum, rightOK := toFloat64(right)

	if leftOK && rightOK {
		return math.Abs(leftNum-rightNum) < 1e-9
	}

	if leftOK != rightOK {
		return false
	}

	return reflect.DeepEqual(left, right)
}

// contains is true when a string payload value contains the rule value as a
// substring, or when an array payload value contains an equal element.
func contains(value, needle any) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(v, fmt.Sprintf("%v", needle))
	case []any:
		for _, element := range v {
			if equal(element, needle) {
				return true
			}
		}

		return false
	case []string:
		needleStr := fmt.Sprintf("%v", needle)
		for _, element := range v {
			if element == needleStr {
				return true
			}
		}

		return false
	default:
		return false
	}
}

// numericCompare coerces both operands to float64 and applies cmp. A
// non-numeric operand fails the comparison instead of erroring.
func numericCompare(left, right any, cmp func(a, b float64) bool) bool {
	leftNum, leftOK := toFloat64(left)
	rightNum, rightOK := toFloat64(right)

	if !leftOK || !rightOK {
		return false
	}

	return cmp(leftNum, rightNum)
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
