// Package assertion evaluates user-declared checks against probe results.
//
// An Assertion names a result field, an optional path into that field's
// value, an operator and (for binary operators) an expected value:
//
//	{Field: "resolvedValues", Path: "[0]", Operator: OpEquals, Value: "1.2.3.4"}
//
// Evaluate walks assertions in declaration order and stops at the first
// failure. A field that is absent is not an error: each operator decides
// what absence means (see MissingPasses).
package assertion
