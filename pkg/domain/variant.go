package domain

// Field names shared by every variant.
const (
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldEmail        = "email"
	FieldCity         = "city"
	FieldProjectType  = "projectType"
	FieldProductType  = "productType"
	FieldMeasurements = "measurements"
	FieldPreferences  = "preferences"
	FieldMessage      = "message"

	FieldPreferredDate = "preferredDate"
	FieldPreferredTime = "preferredTime"
)

// BaseFields are present in every wizard regardless of its steps.
var BaseFields = []string{
	FieldName,
	FieldPhone,
	FieldEmail,
	FieldCity,
	FieldProjectType,
	FieldProductType,
	FieldMeasurements,
	FieldPreferences,
	FieldMessage,
}

// RequiredFields are the only fields whose absence blocks submission.
var RequiredFields = []string{FieldName, FieldPhone}

// Step is one screen's worth of fields.
type Step struct {
	Title  string   `json:"title" yaml:"title" mapstructure:"title"`
	Fields []string `json:"fields" yaml:"fields" mapstructure:"fields"`
}

// PreferenceSegment is one labelled slot of the synthesized preferences string.
type PreferenceSegment struct {
	Label string `json:"label" yaml:"label" mapstructure:"label"`
	Field string `json:"field" yaml:"field" mapstructure:"field"`
}

// Variant is a wizard parameterized by its step list.
type Variant struct {
	Name        string              `json:"name" yaml:"name" mapstructure:"name"`
	Description string              `json:"description,omitempty" yaml:"description" mapstructure:"description"`
	LeadType    LeadType            `json:"lead_type" yaml:"lead_type" mapstructure:"lead_type"`
	// Dialog variants close their hosting dialog after a successful submit.
	Dialog      bool                `json:"dialog" yaml:"dialog" mapstructure:"dialog"`
	Steps       []Step              `json:"steps" yaml:"steps" mapstructure:"steps"`
	Preferences []PreferenceSegment `json:"preferences" yaml:"preferences" mapstructure:"preferences"`
}

// FieldNames returns the base fields followed by any step field not already listed.
func (v Variant) FieldNames() []string {
	seen := make(map[string]bool, len(BaseFields))
	names := make([]string, 0, len(BaseFields))
	for _, f := range BaseFields {
		seen[f] = true
		names = append(names, f)
	}
	for _, step := range v.Steps {
		for _, f := range step.Fields {
			if !seen[f] {
				seen[f] = true
				names = append(names, f)
			}
		}
	}
	return names
}

// HasField reports whether name belongs to this variant.
func (v Variant) HasField(name string) bool {
	for _, f := range v.FieldNames() {
		if f == name {
			return true
		}
	}
	return false
}

// Step returns the 1-indexed step, or false when out of range.
func (v Variant) Step(n int) (Step, bool) {
	if n < 1 || n > len(v.Steps) {
		return Step{}, false
	}
	return v.Steps[n-1], true
}
