package contract

import (
	"encoding/json"
	"fmt"
)

// Decode validates raw against the named schema and maps the normalized
// value onto T. T's json tags must match the schema's field names.
func Decode[T any](v *Validator, raw any, schemaName string) (T, error) {
	var out T
	value, err := v.Validate(raw, schemaName)
	if err != nil {
		return out, err
	}
	if err := remarshal(value, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", schemaName, err)
	}
	return out, nil
}

// ToRaw converts a typed value into the untyped form the validator
// accepts, by way of its JSON encoding
func ToRaw(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return DecodeJSON(data)
}

func remarshal(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
