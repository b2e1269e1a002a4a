package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentModeMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o644))

	_, err := NewReader(path).PaymentMode()
	assert.ErrorIs(t, err, ErrMalformed)

	require.NoError(t, os.WriteFile(path, []byte(`{"payment":{}}`), 0o644))
	mode, err := NewReader(path).PaymentMode()
	require.NoError(t, err)
	assert.Empty(t, mode)
}

func TestDefaultSettingsFileParses(t *testing.T) {
	mode, err := NewReader(filepath.Join("..", "..", "config", "settings.json")).PaymentMode()
	require.NoError(t, err)
	assert.Equal(t, "manual", mode)
}
