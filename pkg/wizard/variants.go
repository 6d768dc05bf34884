package wizard

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Names of the built-in variants.
const (
	VariantQuote   = "quote"
	VariantContact = "contact"
)

// DefaultVariants returns the quote dialog (3 steps) and the contact page (4 steps).
func DefaultVariants() []domain.Variant {
	details := domain.Step{
		Title:  "Your details",
		Fields: []string{domain.FieldName, domain.FieldPhone, domain.FieldEmail, domain.FieldCity},
	}

	return []domain.Variant{
		{
			Name:        VariantQuote,
			Description: "Get a free quote (dialog)",
			LeadType:    domain.LeadTypeQuote,
			Dialog:      true,
			Steps: []domain.Step{
				details,
				{Title: "Your project", Fields: []string{domain.FieldProjectType, domain.FieldProductType}},
				{Title: "Measurements & preferences", Fields: []string{domain.FieldMeasurements, domain.FieldPreferences, domain.FieldMessage}},
			},
			Preferences: []domain.PreferenceSegment{
				{Label: "Product Type", Field: domain.FieldProductType},
				{Label: "Preferences", Field: domain.FieldPreferences},
			},
		},
		{
			Name:        VariantContact,
			Description: "Book a free site visit (contact page)",
			LeadType:    domain.LeadTypeSiteVisit,
			Steps: []domain.Step{
				details,
				{Title: "Your project", Fields: []string{domain.FieldProjectType, domain.FieldProductType, domain.FieldMeasurements}},
				{Title: "Schedule a visit", Fields: []string{domain.FieldPreferredDate, domain.FieldPreferredTime}},
				{Title: "Anything else", Fields: []string{domain.FieldPreferences, domain.FieldMessage}},
			},
			Preferences: []domain.PreferenceSegment{
				{Label: "Product Type", Field: domain.FieldProductType},
				{Label: "Preferred Date", Field: domain.FieldPreferredDate},
				{Label: "Preferred Time", Field: domain.FieldPreferredTime},
				{Label: "Preferences", Field: domain.FieldPreferences},
			},
		},
	}
}

// ValidateVariant checks a variant definition before it is registered.
func ValidateVariant(v domain.Variant) error {
	if v.Name == "" {
		return fmt.Errorf("variant name is required")
	}
	if !v.LeadType.Valid() {
		return fmt.Errorf("variant %q: invalid lead_type %q", v.Name, v.LeadType)
	}
	if len(v.Steps) == 0 {
		return fmt.Errorf("variant %q: at least one step is required", v.Name)
	}
	for i, step := range v.Steps {
		if len(step.Fields) == 0 {
			return fmt.Errorf("variant %q: step %d has no fields", v.Name, i+1)
		}
	}
	for _, seg := range v.Preferences {
		if seg.Label == "" || seg.Field == "" {
			return fmt.Errorf("variant %q: preference segments need a label and a field", v.Name)
		}
	}
	return nil
}

// Registry holds the variants a server can open, by name.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]domain.Variant
}

// NewRegistry validates and registers variants. Duplicate names are rejected.
func NewRegistry(variants ...domain.Variant) (*Registry, error) {
	r := &Registry{variants: make(map[string]domain.Variant, len(variants))}
	for _, v := range variants {
		if err := r.Register(v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustDefaultRegistry returns a registry with DefaultVariants.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultVariants()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a variant.
func (r *Registry) Register(v domain.Variant) error {
	if err := ValidateVariant(v); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.variants[v.Name]; exists {
		return fmt.Errorf("variant %q registered twice", v.Name)
	}
	r.variants[v.Name] = v
	return nil
}

// Replace swaps the whole variant set after validating it. On error the registry
// is left untouched. Sessions opened with a removed variant keep their state but can
// no longer be submitted.
func (r *Registry) Replace(variants ...domain.Variant) error {
	next, err := NewRegistry(variants...)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants = next.variants
	return nil
}

// Get returns the named variant or domain.ErrUnknownVariant.
func (r *Registry) Get(name string) (domain.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[name]
	if !ok {
		return domain.Variant{}, fmt.Errorf("%w: %q", domain.ErrUnknownVariant, name)
	}
	return v, nil
}

// List returns all variants sorted by name.
func (r *Registry) List() []domain.Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Variant, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
