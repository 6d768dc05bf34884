package wizard

import (
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

// PreferenceSeparator joins the labelled preference segments.
const PreferenceSeparator = " | "

// BuildPayload maps collected fields onto the leads endpoint schema.
func BuildPayload(variant domain.Variant, fields map[string]string) domain.LeadPayload {
	return domain.LeadPayload{
		Name:         strings.TrimSpace(fields[domain.FieldName]),
		Phone:        strings.TrimSpace(fields[domain.FieldPhone]),
		Email:        optional(fields[domain.FieldEmail]),
		City:         optional(fields[domain.FieldCity]),
		LeadType:     variant.LeadType,
		ProjectType:  fields[domain.FieldProjectType],
		Measurements: fields[domain.FieldMeasurements],
		Preferences:  Preferences(variant, fields),
		Message:      fields[domain.FieldMessage],
	}
}

// Preferences renders the variant's segments as "Label: value", keeping labels of empty slots.
func Preferences(variant domain.Variant, fields map[string]string) string {
	parts := make([]string, 0, len(variant.Preferences))
	for _, seg := range variant.Preferences {
		parts = append(parts, seg.Label+": "+strings.TrimSpace(fields[seg.Field]))
	}
	return strings.Join(parts, PreferenceSeparator)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
