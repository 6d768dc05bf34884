package wizard_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchVariants_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(variantsYAML), 0o644))

	initial, err := wizard.LoadVariants(path)
	require.NoError(t, err)
	registry, err := wizard.NewRegistry(initial...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- wizard.WatchVariants(ctx, path, registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// An invalid edit keeps the previous set.
	require.NoError(t, os.WriteFile(path, []byte("variants: [{name: broken}]"), 0o644))
	time.Sleep(300 * time.Millisecond)
	_, err = registry.Get("callback")
	assert.NoError(t, err)

	updated := `
variants:
  - name: brochure
    lead_type: quote
    steps:
      - title: Details
        fields: [name, phone, email]
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		_, err := registry.Get("brochure")
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
	_, err = registry.Get("callback")
	assert.Error(t, err)

	cancel()
	assert.NoError(t, <-done)
}

func TestRegistry_ReplaceRejectsInvalid(t *testing.T) {
	registry := wizard.MustDefaultRegistry()
	err := registry.Replace(wizard.DefaultVariants()[0], wizard.DefaultVariants()[0])
	assert.Error(t, err)
	assert.Len(t, registry.List(), 2)
}
