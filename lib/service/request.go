// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"encoding/json"
	"math"
	"net"
	"strconv"

	"github.com/boxoffice-pos/boxoffice/lib/fault"
)

// Request is one decoded client message. Fields holds every key of
// the flat request map, including "action". Accessors return
// fault.Validation errors naming the field so handlers can return
// them unchanged.
type Request struct {
	Action string
	Fields map[string]any
	Remote net.Addr
}

// Has reports whether field is present and not null.
func (r *Request) Has(field string) bool {
	value, exists := r.Fields[field]
	return exists && value != nil
}

// String returns a required text field.
func (r *Request) String(field string) (string, error) {
	value, err := r.required(field)
	if err != nil {
		return "", err
	}
	text, ok := value.(string)
	if !ok {
		return "", fault.InvalidField(field, "must be a string, got %s", describe(value))
	}
	return text, nil
}

// Int returns a required integer field. Integral floating-point
// values are accepted; fractions, strings and booleans are not.
func (r *Request) Int(field string) (int64, error) {
	value, err := r.required(field)
	if err != nil {
		return 0, err
	}
	return toInt(field, value)
}

// OptionalInt returns an integer field and whether it was present.
func (r *Request) OptionalInt(field string) (int64, bool, error) {
	if !r.Has(field) {
		return 0, false, nil
	}
	number, err := toInt(field, r.Fields[field])
	if err != nil {
		return 0, true, err
	}
	return number, true, nil
}

// Float returns a required numeric field.
func (r *Request) Float(field string) (float64, error) {
	value, err := r.required(field)
	if err != nil {
		return 0, err
	}
	number, ok := toFloat(value)
	if !ok {
		return 0, fault.InvalidField(field, "must be a number, got %s", describe(value))
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, fault.InvalidField(field, "must be a finite number")
	}
	return number, nil
}

func (r *Request) required(field string) (any, error) {
	value, exists := r.Fields[field]
	if !exists || value == nil {
		return nil, fault.MissingField(field)
	}
	return value, nil
}

func toInt(field string, value any) (int64, error) {
	switch number := value.(type) {
	case json.Number:
		if integer, err := strconv.ParseInt(number.String(), 10, 64); err == nil {
			return integer, nil
		}
		floating, err := number.Float64()
		if err != nil {
			return 0, fault.InvalidField(field, "must be an integer, got %s", number)
		}
		return integralFloat(field, floating)
	case int64:
		return number, nil
	case uint64:
		if number > math.MaxInt64 {
			return 0, fault.InvalidField(field, "is out of range")
		}
		return int64(number), nil
	case int:
		return int64(number), nil
	case float64:
		return integralFloat(field, number)
	case float32:
		return integralFloat(field, float64(number))
	default:
		return 0, fault.InvalidField(field, "must be an integer, got %s", describe(value))
	}
}

// integralFloat accepts 30.0 but not 30.5. The bound excludes 2^63,
// which does not fit in int64.
func integralFloat(field string, value float64) (int64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
		return 0, fault.InvalidField(field, "must be an integer, got %v", value)
	}
	if value < math.MinInt64 || value >= math.MaxInt64 {
		return 0, fault.InvalidField(field, "is out of range")
	}
	return int64(value), nil
}

func toFloat(value any) (float64, bool) {
	switch number := value.(type) {
	case json.Number:
		floating, err := number.Float64()
		return floating, err == nil
	case float64:
		return number, true
	case float32:
		return float64(number), true
	case int64:
		return float64(number), true
	case uint64:
		return float64(number), true
	case int:
		return float64(number), true
	default:
		return 0, false
	}
}

// describe names a decoded value's type in client-facing terms.
func describe(value any) string {
	switch value.(type) {
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, int64, uint64, int, float64, float32:
		return "a number"
	case map[string]any:
		return "an object"
	case []any:
		return "a list"
	default:
		return "an unsupported value"
	}
}
