package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadScript(t *testing.T) {
	photo := writeFile(t, "selfie.jpg", "jpeg")
	path := writeFile(t, "run.toml", `
photo = "`+photo+`"
settle = "250ms"
commands = [
  "continue",
  "# comment",
  "",
  "city SF SoMa",
]
`)

	sc, err := loadScript(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), sc.Photo)
	assert.Equal(t, 250*time.Millisecond, sc.Settle)
	assert.Equal(t, []string{"continue", "city SF SoMa"}, sc.Commands)
}

func TestLoadScript_Defaults(t *testing.T) {
	sc, err := loadScript(writeFile(t, "run.toml", `commands = ["continue"]`))
	require.NoError(t, err)
	assert.Equal(t, defaultSettle, sc.Settle)
	assert.Nil(t, sc.Photo)
}

func TestLoadScript_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":  "command = [\"continue\"]",
		"bad settle":   "settle = \"soon\"\ncommands = [\"c\"]",
		"missing file": "photo = \"/nope/selfie.jpg\"\ncommands = [\"c\"]",
		"empty":        "commands = []",
		"syntax":       "commands = [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadScript(writeFile(t, "run.toml", body))
			assert.Error(t, err)
		})
	}
}
