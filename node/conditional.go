package node

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shivakharbanda/agent-builder/log"
)

// ConditionalResult is the output of a conditional node. Downstream routing
// depends on always receiving exactly one of the two paths, so evaluation
// errors degrade to the false path with a note instead of failing the node.
type ConditionalResult struct {
	Result bool   `json:"result"`
	Path   string `json:"path"`
	Data   any    `json:"data"`
	Note   string `json:"note,omitempty"`
}

var conditionTypes = map[string]bool{
	"expression":   true,
	"field_value":  true,
	"record_count": true,
}

// conditionalHandler evaluates a condition against its input and routes to
// the "true" or "false" path.
type conditionalHandler struct {
	nctx Context
	env  *Env
}

func newConditionalHandler(nctx Context, env *Env) (Handler, error) {
	return &conditionalHandler{nctx: nctx, env: env}, nil
}

// Validate checks the condition body and type.
func (h *conditionalHandler) Validate(_ context.Context) error {
	cfg := h.nctx.Config
	if cfg.String("condition") == "" {
		return NewConfigError("condition is required")
	}
	condType := cfg.String("condition_type")
	if condType == "" {
		return NewConfigError("condition_type is required")
	}
	if !conditionTypes[condType] {
		return NewConfigError("invalid condition_type %q, must be one of: expression, field_value, record_count", condType)
	}
	return nil
}

// Execute evaluates the condition. It never returns an error for an
// evaluation failure: the result degrades to the false path with a note.
func (h *conditionalHandler) Execute(_ context.Context, input any) (any, error) {
	cfg := h.nctx.Config
	condition := cfg.String("condition")
	condType := cfg.String("condition_type")

	result, err := h.evaluate(condType, condition, input)
	out := &ConditionalResult{Result: result, Data: input}
	if err != nil {
		out.Result = false
		out.Note = fmt.Sprintf("condition evaluation failed: %v", err)
		log.Warnf("node %d condition %q failed to evaluate: %v", h.nctx.NodeID, condition, err)
	}
	if out.Result {
		out.Path = "true"
	} else {
		out.Path = "false"
	}
	return out, nil
}

func (h *conditionalHandler) evaluate(condType, condition string, input any) (bool, error) {
	switch condType {
	case "record_count":
		return evalRecordCount(condition, input)
	case "field_value":
		return evalFieldValue(condition, input)
	case "expression":
		return evalExpression(condition, input)
	default:
		return false, fmt.Errorf("unknown condition_type %q", condType)
	}
}

// evalRecordCount compares len(input) against a condition like "> 10".
func evalRecordCount(condition string, input any) (bool, error) {
	operator, operand, err := splitUnary(condition)
	if err != nil {
		return false, err
	}
	threshold, err := strconv.ParseFloat(operand, 64)
	if err != nil {
		return false, fmt.Errorf("record_count threshold %q is not a number", operand)
	}
	count, err := inputCount(input)
	if err != nil {
		return false, err
	}
	return compare(float64(count), operator, threshold), nil
}

// evalFieldValue compares one field of the first record against a literal,
// condition form "field op value".
func evalFieldValue(condition string, input any) (bool, error) {
	field, operator, literal, err := splitComparison(condition)
	if err != nil {
		return false, err
	}
	records, err := recordList(input)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, fmt.Errorf("field_value condition has no records to inspect")
	}
	value, ok := records[0][field]
	if !ok {
		return false, fmt.Errorf("field %q not present in record", field)
	}
	return compare(value, operator, parseLiteral(literal)), nil
}

// evalExpression evaluates a restricted boolean expression: comparisons
// over `count` and first-record fields, joined by && and ||. No function
// calls, no parentheses; anything else is an evaluation error.
func evalExpression(condition string, input any) (bool, error) {
	count, err := inputCount(input)
	if err != nil {
		return false, err
	}
	var first map[string]any
	if records, err := recordList(input); err == nil && len(records) > 0 {
		first = records[0]
	}

	for _, disjunct := range strings.Split(condition, "||") {
		all := true
		for _, conjunct := range strings.Split(disjunct, "&&") {
			ok, err := evalAtom(strings.TrimSpace(conjunct), count, first)
			if err != nil {
				return false, err
			}
			if !ok {
				all = false
				break
			}
		}
		if all {
			return true, nil
		}
	}
	return false, nil
}

func evalAtom(atom string, count int, record map[string]any) (bool, error) {
	if strings.ContainsAny(atom, "()") {
		return false, fmt.Errorf("expression %q: function calls and grouping are not allowed", atom)
	}
	field, operator, literal, err := splitComparison(atom)
	if err != nil {
		return false, err
	}
	var left any
	if field == "count" {
		left = float64(count)
	} else {
		value, ok := record[field]
		if !ok {
			return false, fmt.Errorf("field %q not present in record", field)
		}
		left = value
	}
	return compare(left, operator, parseLiteral(literal)), nil
}

// comparison operators ordered so two-character operators match before
// their one-character prefixes.
var comparisonOps = []string{">=", "<=", "==", "!=", ">", "<"}

// splitComparison parses "field op literal".
func splitComparison(expr string) (field, operator, literal string, err error) {
	for _, op := range comparisonOps {
		if idx := strings.Index(expr, op); idx > 0 {
			field = strings.TrimSpace(expr[:idx])
			literal = strings.TrimSpace(expr[idx+len(op):])
			if field == "" || literal == "" {
				return "", "", "", fmt.Errorf("malformed comparison %q", expr)
			}
			return field, op, literal, nil
		}
	}
	return "", "", "", fmt.Errorf("no comparison operator in %q", expr)
}

// splitUnary parses "op operand", e.g. "> 10".
func splitUnary(expr string) (operator, operand string, err error) {
	trimmed := strings.TrimSpace(expr)
	for _, op := range comparisonOps {
		if strings.HasPrefix(trimmed, op) {
			operand = strings.TrimSpace(strings.TrimPrefix(trimmed, op))
			if operand == "" {
				return "", "", fmt.Errorf("malformed condition %q", expr)
			}
			return op, operand, nil
		}
	}
	return "", "", fmt.Errorf("no comparison operator in %q", expr)
}

// parseLiteral interprets a literal token: quoted string, boolean, number,
// or bare string.
func parseLiteral(token string) any {
	if len(token) >= 2 {
		if (token[0] == '\'' && token[len(token)-1] == '\'') ||
			(token[0] == '"' && token[len(token)-1] == '"') {
			return token[1 : len(token)-1]
		}
	}
	switch token {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f
	}
	return token
}

// inputCount reports the number of input records; scalar inputs count as
// one, nil as zero.
func inputCount(input any) (int, error) {
	switch v := input.(type) {
	case nil:
		return 0, nil
	case []map[string]any:
		return len(v), nil
	case []any:
		return len(v), nil
	case map[string]any:
		return 1, nil
	default:
		return 1, nil
	}
}
