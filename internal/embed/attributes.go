package embed

import (
	"fmt"
	"math"
)

const (
	maxAttributes     = 32
	maxAttributeKey   = 64
	maxAttributeList  = 32
	maxAttributeValue = 256
)

// reservedClaims cannot be used as attribute keys.
var reservedClaims = map[string]struct{}{
	"sub":             {},
	"email":           {},
	"account_type":    {},
	"teams":           {},
	"user_attributes": {},
	"iat":             {},
	"exp":             {},
	"nbf":             {},
	"iss":             {},
	"aud":             {},
	"jti":             {},
}

// validateAttributes checks that attrs is a small flat map of scalars or
// lists of scalars. Decoded JSON numbers arrive as float64.
func validateAttributes(attrs map[string]any) error {
	if len(attrs) > maxAttributes {
		return &ValidationError{Field: "userAttributes", Reason: fmt.Sprintf("at most %d keys allowed", maxAttributes)}
	}
	for k, v := range attrs {
		if k == "" || len(k) > maxAttributeKey {
			return &ValidationError{Field: "userAttributes", Reason: fmt.Sprintf("key %q must be 1-%d characters", k, maxAttributeKey)}
		}
		if _, ok := reservedClaims[k]; ok {
			return &ValidationError{Field: "userAttributes", Reason: fmt.Sprintf("key %q is reserved", k)}
		}
		if list, ok := v.([]any); ok {
			if len(list) > maxAttributeList {
				return &ValidationError{Field: "userAttributes." + k, Reason: fmt.Sprintf("at most %d items allowed", maxAttributeList)}
			}
			for _, item := range list {
				if err := validateScalar(k, item); err != nil {
					return err
				}
			}
			continue
		}
		if list, ok := v.([]string); ok {
			if len(list) > maxAttributeList {
				return &ValidationError{Field: "userAttributes." + k, Reason: fmt.Sprintf("at most %d items allowed", maxAttributeList)}
			}
			for _, item := range list {
				if err := validateScalar(k, item); err != nil {
					return err
				}
			}
			continue
		}
		if err := validateScalar(k, v); err != nil {
			return err
		}
	}
	return nil
}

func validateScalar(key string, v any) error {
	switch val := v.(type) {
	case string:
		if len(val) > maxAttributeValue {
			return &ValidationError{Field: "userAttributes." + key, Reason: fmt.Sprintf("strings are limited to %d characters", maxAttributeValue)}
		}
	case bool, int, int64:
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return &ValidationError{Field: "userAttributes." + key, Reason: "number must be finite"}
		}
	default:
		return &ValidationError{Field: "userAttributes." + key, Reason: fmt.Sprintf("unsupported value type %T", v)}
	}
	return nil
}
