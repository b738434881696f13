package node

import "fmt"

// recordList coerces a node input into a list of records. Inputs arriving
// through JSON decode as []any; inputs passed directly between nodes are
// []map[string]any already.
func recordList(input any) ([]map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return v, nil
	case []any:
		records := make([]map[string]any, 0, len(v))
		for i, item := range v {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("input element %d is %T, expected an object", i, item)
			}
			records = append(records, record)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("input is %T, expected a list of records", input)
	}
}
