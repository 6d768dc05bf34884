package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/stretchr/testify/assert"
)

func TestVariantsMarkdown(t *testing.T) {
	md := VariantsMarkdown(wizard.DefaultVariants())

	assert.Contains(t, md, "## quote")
	assert.Contains(t, md, "shown as a dialog, 3 steps")
	assert.Contains(t, md, "## contact")
	assert.Contains(t, md, "Lead type `site_visit`, shown as a page, 4 steps")
	assert.Contains(t, md, "3. **Schedule a visit**: `preferredDate`, `preferredTime`")
	assert.Contains(t, md, "Product Type | Preferred Date | Preferred Time | Preferences")
}

func TestToastAndHeader(t *testing.T) {
	out := Toast(domain.ValidationNotification("s1"))
	assert.Contains(t, out, "Missing details")
	assert.Contains(t, out, "Please enter your name and phone number.")

	header := StepHeader(2, 4, "Your project", 50)
	assert.Contains(t, header, "Step 2 of 4")
	assert.Contains(t, header, "50%")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.4.0\n")
	assert.Contains(t, buf.String(), "v0.4.0")
}
