package wizard

import (
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

// CanSubmit reports whether the required fields are filled.
func CanSubmit(fields map[string]string) bool {
	return Validate(fields) == nil
}

// Validate returns a *domain.ValidationError listing every required field that is empty
// or whitespace-only. No format checks are applied to any field.
func Validate(fields map[string]string) error {
	var missing []string
	for _, name := range domain.RequiredFields {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Missing: missing}
	}
	return nil
}
