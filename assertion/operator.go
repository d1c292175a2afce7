package assertion

// Operator names a comparison.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "notEquals"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "notContains"
	OpStartsWith         Operator = "startsWith"
	OpEndsWith           Operator = "endsWith"
	OpMatches            Operator = "matches"
	OpGreaterThan        Operator = "greaterThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThan           Operator = "lessThan"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpIsTrue             Operator = "isTrue"
	OpIsFalse            Operator = "isFalse"
	OpExists             Operator = "exists"
	OpNotExists          Operator = "notExists"
	OpIsEmpty            Operator = "isEmpty"
)

var unary = map[Operator]bool{
	OpIsTrue:    true,
	OpIsFalse:   true,
	OpExists:    true,
	OpNotExists: true,
	OpIsEmpty:   true,
}

var binary = map[Operator]bool{
	OpEquals:             true,
	OpNotEquals:          true,
	OpContains:           true,
	OpNotContains:        true,
	OpStartsWith:         true,
	OpEndsWith:           true,
	OpMatches:            true,
	OpGreaterThan:        true,
	OpGreaterThanOrEqual: true,
	OpLessThan:           true,
	OpLessThanOrEqual:    true,
}

// Known reports whether op is a supported operator.
func (op Operator) Known() bool {
	return unary[op] || binary[op]
}

// Binary reports whether op compares against an expected value.
func (op Operator) Binary() bool {
	return binary[op]
}

// MissingPasses reports how op treats an absent field.
// notExists and isEmpty pass; exists and every other operator fail.
func (op Operator) MissingPasses() bool {
	return op == OpNotExists || op == OpIsEmpty
}

// Operators returns every supported operator.
func Operators() []Operator {
	return []Operator{
		OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith,
		OpEndsWith, OpMatches, OpGreaterThan, OpGreaterThanOrEqual,
		OpLessThan, OpLessThanOrEqual, OpIsTrue, OpIsFalse, OpExists,
		OpNotExists, OpIsEmpty,
	}
}
