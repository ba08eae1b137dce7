package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := Default()

	got := c.Lookup("¿Qué PLAZOS y tasas manejan?")
	assert.True(t, strings.HasPrefix(got, "Los plazos disponibles"), "catalog order is kept")
	assert.Contains(t, got, "12% hasta el 35%")
	assert.NotContains(t, got, "Documentos requeridos")
	assert.True(t, strings.HasSuffix(got, "\n\n"))

	assert.Equal(t, NotFoundMessage, c.Lookup("horario de atención"))
}

func TestLookup_MultiWordKey(t *testing.T) {
	c := &Catalog{Topics: []Topic{{Key: "seguro de vida", Text: "Incluye seguro."}}}

	assert.Equal(t, "Incluye seguro.\n\n", c.Lookup("¿tiene seguro?"))
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
topics:
  - key: montos
    text: Desde $1,000.
  - key: plazos
    text: 12 a 48 meses.
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"montos", "plazos"}, c.Keys())
	assert.Equal(t, "12 a 48 meses.\n\n", c.Lookup("plazos"))
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":     "topics: []",
		"no key":    "topics:\n  - text: x\n",
		"duplicate": "topics:\n  - key: a\n    text: x\n  - key: A\n    text: y\n",
		"not yaml":  "topics: [",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Len(t, c.Topics, 5)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("topics:\n  - key: tasas\n    text: 20%\n"), 0o600))
	c, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasas"}, c.Keys())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
