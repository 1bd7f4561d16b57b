package docstore

import (
	"cmp"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Op is a query comparison operator.
type Op string

// Supported operators.
const (
	OpEqual        Op = "=="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpIn           Op = "in"
)

// Filter is a predicate over a single top-level document field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (f Filter) validate() error {
	if !fieldPattern.MatchString(f.Field) {
		return fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
	}
	switch f.Op {
	case OpEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpIn:
		return nil
	}
	return fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Op)
}

// operand returns the filter value in its JSON-decoded form (string,
// float64, bool or []any), which is how it compares against stored fields.
func (f Filter) operand() (any, error) {
	v, err := normalize(f.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: value for %q: %v", ErrInvalidFilter, f.Field, err)
	}
	if f.Op == OpIn {
		if _, ok := v.([]any); !ok {
			return nil, fmt.Errorf("%w: %q needs a list value", ErrInvalidFilter, OpIn)
		}
	}
	return v, nil
}

// match evaluates f against a decoded document. Missing fields never match.
func (f Filter) match(obj map[string]json.RawMessage, want any) bool {
	raw, ok := obj[f.Field]
	if !ok {
		return false
	}
	var got any
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}

	if f.Op == OpIn {
		for _, w := range want.([]any) {
			if c, ok := compareValues(got, w); ok && c == 0 {
				return true
			}
		}
		return false
	}

	c, ok := compareValues(got, want)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEqual:
		return c == 0
	case OpLess:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	}
	return false
}

// compareValues orders two JSON-decoded scalars of the same kind.
func compareValues(a, b any) (int, bool) {
	switch a := a.(type) {
	case string:
		if b, ok := b.(string); ok {
			return strings.Compare(a, b), true
		}
	case float64:
		if b, ok := b.(float64); ok {
			return cmp.Compare(a, b), true
		}
	case bool:
		if b, ok := b.(bool); ok {
			switch {
			case a == b:
				return 0, true
			case !a:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

// sqlClause renders f as a condition over the documents.data column.
func (f Filter) sqlClause() (string, []any, error) {
	if err := f.validate(); err != nil {
		return "", nil, err
	}
	want, err := f.operand()
	if err != nil {
		return "", nil, err
	}

	expr := "json_extract(data, '$." + f.Field + "')"

	if f.Op == OpIn {
		list := want.([]any)
		if len(list) == 0 {
			return "0", nil, nil
		}
		args := make([]any, 0, len(list))
		for _, v := range list {
			arg, err := sqlValue(v)
			if err != nil {
				return "", nil, err
			}
			args = append(args, arg)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(list)), ", ")
		return expr + " IN (" + placeholders + ")", args, nil
	}

	arg, err := sqlValue(want)
	if err != nil {
		return "", nil, err
	}
	op := string(f.Op)
	if f.Op == OpEqual {
		op = "="
	}
	return expr + " " + op + " ?", []any{arg}, nil
}

// sqlValue maps a JSON scalar to the value json_extract yields for it.
func sqlValue(v any) (any, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string, float64:
		return v, nil
	}
	return nil, fmt.Errorf("%w: unsupported value %T", ErrInvalidFilter, v)
}
