package assertion

import "testing"

func BenchmarkEvaluate(b *testing.B) {
	assertions := []Assertion{
		{Field: "statusCode", Operator: OpEquals, Value: 200},
		{Field: "latencyMs", Operator: OpLessThan, Value: 500},
		{Field: "body", Operator: OpContains, Value: "ok"},
		{Field: "headers", Path: "content-type", Operator: OpStartsWith, Value: "application/"},
	}
	fields := map[string]any{
		"statusCode": 200,
		"latencyMs":  12.5,
		"body":       "status: ok",
		"headers":    map[string]any{"content-type": "application/json"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if f := Evaluate(assertions, fields); f != nil {
			b.Fatal(f.Message())
		}
	}
}
