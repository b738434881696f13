package node

import (
	"context"
	"encoding/json"
	"strings"
)

// filterHandler keeps the input records matching the configured conditions,
// combined with AND or OR, preserving input order.
type filterHandler struct {
	nctx Context
	env  *Env
}

func newFilterHandler(nctx Context, env *Env) (Handler, error) {
	return &filterHandler{nctx: nctx, env: env}, nil
}

// filterCondition is one parsed condition.
type filterCondition struct {
	Field    string
	Operator string
	Value    any
}

var filterOperators = map[string]bool{
	"==": true, "!=": true,
	">": true, "<": true, ">=": true, "<=": true,
	"contains": true, "not_contains": true,
}

// Validate checks the condition list and the combining operator.
func (h *filterHandler) Validate(_ context.Context) error {
	conditions, err := h.conditions()
	if err != nil {
		return err
	}
	if len(conditions) == 0 {
		return NewConfigError("conditions is required and must not be empty")
	}
	op := strings.ToUpper(h.nctx.Config.String("operator"))
	if op != "AND" && op != "OR" {
		return NewConfigError("operator must be AND or OR, got %q", h.nctx.Config.String("operator"))
	}
	return nil
}

// Execute returns the records satisfying the combined conditions. A type
// mismatch between a record field and a condition value fails that single
// condition, never the batch.
func (h *filterHandler) Execute(_ context.Context, input any) (any, error) {
	records, err := recordList(input)
	if err != nil {
		return nil, NewRuntimeError("filter node expects a list of records: %v", err)
	}
	conditions, _ := h.conditions()
	conjunctive := strings.ToUpper(h.nctx.Config.String("operator")) == "AND"

	matched := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if matchRecord(record, conditions, conjunctive) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (h *filterHandler) conditions() ([]filterCondition, error) {
	raw := h.nctx.Config.Slice("conditions")
	if raw == nil {
		if _, present := h.nctx.Config["conditions"]; present {
			return nil, NewConfigError("conditions must be a list")
		}
		return nil, NewConfigError("conditions is required and must not be empty")
	}
	conditions := make([]filterCondition, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, NewConfigError("condition %d must be an object with field, operator and value", i)
		}
		cond := filterCondition{
			Field:    Config(m).String("field"),
			Operator: Config(m).String("operator"),
			Value:    m["value"],
		}
		if cond.Field == "" {
			return nil, NewConfigError("condition %d is missing field", i)
		}
		if !filterOperators[cond.Operator] {
			return nil, NewConfigError("condition %d has unknown operator %q", i, cond.Operator)
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

func matchRecord(record map[string]any, conditions []filterCondition, conjunctive bool) bool {
	if conjunctive {
		for _, cond := range conditions {
			if !evalCondition(record, cond) {
				return false
			}
		}
		return true
	}
	for _, cond := range conditions {
		if evalCondition(record, cond) {
			return true
		}
	}
	return false
}

// evalCondition evaluates one condition against one record. Missing fields
// and uncomparable value pairs evaluate to false.
func evalCondition(record map[string]any, cond filterCondition) bool {
	fieldValue, ok := record[cond.Field]
	if !ok {
		return false
	}
	return compare(fieldValue, cond.Operator, cond.Value)
}

func compare(left any, operator string, right any) bool {
	switch operator {
	case "contains", "not_contains":
		ls, lok := left.(string)
		rs, rok := right.(string)
		if !lok || !rok {
			return false
		}
		contains := strings.Contains(ls, rs)
		if operator == "contains" {
			return contains
		}
		return !contains
	case "==", "!=":
		equal := looseEqual(left, right)
		if operator == "==" {
			return equal
		}
		return !equal
	case ">", "<", ">=", "<=":
		return ordered(left, operator, right)
	default:
		return false
	}
}

// looseEqual compares numerics numerically (JSON numbers decode as float64
// while native records may hold ints) and everything else by type equality.
func looseEqual(left, right any) bool {
	if lf, lok := asFloat(left); lok {
		if rf, rok := asFloat(right); rok {
			return lf == rf
		}
		return false
	}
	return left == right
}

func ordered(left any, operator string, right any) bool {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch operator {
		case ">":
			return lf > rf
		case "<":
			return lf < rf
		case ">=":
			return lf >= rf
		case "<=":
			return lf <= rf
		}
		return false
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if !lok || !rok {
		return false
	}
	switch operator {
	case ">":
		return ls > rs
	case "<":
		return ls < rs
	case ">=":
		return ls >= rs
	case "<=":
		return ls <= rs
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
