package assertions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Operator compares a response value with an expected value.
type Operator string

const (
	OpEquals         Operator = "=="
	OpNotEquals      Operator = "!="
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpContains       Operator = "contains"
	OpMatches        Operator = "matches"
	OpExists         Operator = "exists"
	OpNotExists      Operator = "!exists"
	OpType           Operator = "type"
	OpLength         Operator = "length"
)

// Assertion is one --expect expression such as `status == 200` or
// `body.items length 3`.
type Assertion struct {
	Subject  string
	Operator Operator
	Expected any
}

func (a *Assertion) String() string {
	if a.Operator == OpExists || a.Operator == OpNotExists {
		return fmt.Sprintf("%s %s", a.Subject, a.Operator)
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

var operators = []Operator{
	OpNotExists, OpGreaterOrEqual, OpLessOrEqual, OpEquals, OpNotEquals,
	OpGreaterThan, OpLessThan, OpContains, OpMatches, OpExists, OpType, OpLength,
}

// Parse parses "<subject> <operator> [expected]". The expected value is read
// as JSON when possible (numbers, booleans, quoted strings, arrays) and as a
// bare string otherwise.
func Parse(expr string) (*Assertion, error) {
	fields := strings.Fields(expr)
	if len(fields) < 2 {
		return nil, fmt.Errorf("invalid assertion %q: expected <subject> <operator> [value]", expr)
	}

	subject := fields[0]
	var op Operator
	for _, candidate := range operators {
		if fields[1] == string(candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return nil, fmt.Errorf("invalid assertion %q: unknown operator %q", expr, fields[1])
	}

	a := &Assertion{Subject: subject, Operator: op}
	if op == OpExists || op == OpNotExists {
		if len(fields) > 2 {
			return nil, fmt.Errorf("invalid assertion %q: %s takes no value", expr, op)
		}
		return a, nil
	}

	if len(fields) < 3 {
		return nil, fmt.Errorf("invalid assertion %q: missing expected value", expr)
	}

	// Keep the original spacing of the value.
	rest := strings.TrimSpace(expr)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, subject))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, string(op)))

	var expected any
	if err := json.Unmarshal([]byte(rest), &expected); err != nil {
		expected = rest
	}
	a.Expected = expected
	return a, nil
}
