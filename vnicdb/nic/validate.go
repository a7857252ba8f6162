package nic

import (
	"fmt"
)

// validateFields accepts a map of field/validation functions to run against supplied fields.
func validateFields(rules map[string]func(value string) error, fields map[string]string) error {
	checkedFields := map[string]struct{}{}

	for k, validator := range rules {
		checkedFields[k] = struct{}{} // Mark field as checked.
		err := validator(fields[k])
		if err != nil {
			return fmt.Errorf("Invalid value for NIC field %q: %w", k, err)
		}
	}

	// Fields without a rule only need to be part of the schema.
	for k := range fields {
		_, checked := checkedFields[k]
		if checked {
			continue
		}

		r := Record{}
		if r.value(k) == nil {
			return fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
	}

	return nil
}
