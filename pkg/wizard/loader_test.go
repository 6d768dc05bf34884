package wizard_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const variantsYAML = `
variants:
  - name: callback
    description: Request a callback
    lead_type: quote
    dialog: true
    steps:
      - title: Your details
        fields: [name, phone]
      - title: Anything else
        fields: [message]
    preferences:
      - {label: Preferences, field: preferences}
`

func TestLoadVariants_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(variantsYAML), 0o644))

	variants, err := wizard.LoadVariants(path)
	require.NoError(t, err)
	require.Len(t, variants, 1)

	v := variants[0]
	assert.Equal(t, "callback", v.Name)
	assert.Equal(t, domain.LeadTypeQuote, v.LeadType)
	assert.True(t, v.Dialog)
	assert.Len(t, v.Steps, 2)
	assert.Equal(t, []string{"name", "phone"}, v.Steps[0].Fields)
	assert.Equal(t, "Preferences", v.Preferences[0].Label)
}

func TestParseVariants_JSON(t *testing.T) {
	data := []byte(`{"variants":[{"name":"visit","lead_type":"site_visit","steps":[{"title":"Details","fields":["name","phone"]}]}]}`)

	variants, err := wizard.ParseVariants(data, ".json")
	require.NoError(t, err)
	assert.Equal(t, domain.LeadTypeSiteVisit, variants[0].LeadType)
}

func TestParseVariants_Errors(t *testing.T) {
	tests := map[string]string{
		"missing key":      "other: []",
		"unknown property": "variants:\n  - name: a\n    lead_type: quote\n    stepz: []",
		"bad lead type":    "variants:\n  - name: a\n    lead_type: callback\n    steps:\n      - {title: x, fields: [name]}",
		"no steps":         "variants:\n  - name: a\n    lead_type: quote",
		"empty step":       "variants:\n  - name: a\n    lead_type: quote\n    steps:\n      - {title: x}",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := wizard.ParseVariants([]byte(doc), ".yaml")
			assert.Error(t, err)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := wizard.MustDefaultRegistry()

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, wizard.VariantContact, list[0].Name)
	assert.Equal(t, wizard.VariantQuote, list[1].Name)

	quote, err := r.Get(wizard.VariantQuote)
	require.NoError(t, err)
	assert.Len(t, quote.Steps, 3)
	assert.True(t, quote.Dialog)

	contact, err := r.Get(wizard.VariantContact)
	require.NoError(t, err)
	assert.Len(t, contact.Steps, 4)
	assert.True(t, contact.HasField(domain.FieldPreferredDate))

	_, err = r.Get("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownVariant)

	assert.Error(t, r.Register(quote), "duplicate names are rejected")
}

func TestParseVariants_NameFromDescription(t *testing.T) {
	data := []byte(`
variants:
  - description: Free Site Visit (Pune)
    lead_type: site_visit
    steps:
      - title: Details
        fields: [name, phone]
`)
	variants, err := wizard.ParseVariants(data, ".yml")
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "free-site-visit-pune", variants[0].Name)
}
