package schema

import "encoding/json"

// Decode loads p through v and decodes the result into T.
func Decode[T any](v *Versioned, p Payload) (T, error) {
	var zero T
	data, err := v.Load(p)
	if err != nil {
		return zero, err
	}
	return DecodeMap[T](data)
}

// DecodeMap decodes already-validated data into T.
func DecodeMap[T any](data map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(data)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// EncodeMap is the inverse of DecodeMap.
func EncodeMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	err = json.Unmarshal(raw, &out)
	return out, err
}
