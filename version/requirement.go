package version

import (
	"errors"
	"fmt"
	"strings"
)

// Operator is a comparison operator of a requirement
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpLess           Operator = "<"
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpPessimistic    Operator = "~>"
)

// operators is ordered so that two-character operators are matched first
var operators = []Operator{
	OpPessimistic,
	OpGreaterOrEqual,
	OpLessOrEqual,
	OpNotEqual,
	OpGreater,
	OpLess,
	OpEqual,
}

// Requirement is a single operator and version pair such as ">= 3.2.11"
type Requirement struct {
	Op      Operator
	Version Version
}

// ParseRequirement parses a requirement; a bare version means "="
func ParseRequirement(s string) (Requirement, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Requirement{}, &ParseError{Kind: "requirement", Input: s, Err: errors.New("empty requirement")}
	}

	op := OpEqual
	for _, candidate := range operators {
		if strings.HasPrefix(text, string(candidate)) {
			op = candidate
			text = strings.TrimSpace(text[len(candidate):])
			break
		}
	}

	v, err := Parse(text)
	if err != nil {
		return Requirement{}, &ParseError{Kind: "requirement", Input: s, Err: err}
	}
	return Requirement{Op: op, Version: v}, nil
}

// SatisfiedBy reports whether v meets the requirement
func (r Requirement) SatisfiedBy(v Version) bool {
	c := Compare(v, r.Version)

	switch r.Op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpGreater:
		return c > 0
	case OpLess:
		return c < 0
	case OpGreaterOrEqual:
		return c >= 0
	case OpLessOrEqual:
		return c <= 0
	case OpPessimistic:
		return c >= 0 && Compare(v.Release(), r.Version.Bump()) < 0
	default:
		return false
	}
}

func (r Requirement) String() string {
	return fmt.Sprintf("%s %s", r.Op, r.Version)
}

// Constraint is a conjunction of requirements, e.g. ">= 4.1.0, < 4.1.1"
type Constraint []Requirement

// ParseConstraint parses a comma separated list of requirements
func ParseConstraint(s string) (Constraint, error) {
	if strings.TrimSpace(s) == "" {
		return nil, &ParseError{Kind: "constraint", Input: s, Err: errors.New("empty constraint")}
	}

	var c Constraint
	for _, part := range strings.Split(s, ",") {
		req, err := ParseRequirement(part)
		if err != nil {
			return nil, &ParseError{Kind: "constraint", Input: s, Err: err}
		}
		c = append(c, req)
	}
	return c, nil
}

// ParseConstraints parses each string as a separate constraint set
func ParseConstraints(sets []string) ([]Constraint, error) {
	out := make([]Constraint, 0, len(sets))
	for _, s := range sets {
		c, err := ParseConstraint(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// SatisfiedBy reports whether every requirement holds for v
func (c Constraint) SatisfiedBy(v Version) bool {
	for _, r := range c {
		if !r.SatisfiedBy(v) {
			return false
		}
	}
	return true
}

func (c Constraint) String() string {
	parts := make([]string, len(c))
	for i, r := range c {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
