/*
Copyright © 2025 texneat contributors
*/
package repair

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibraryOrdering(t *testing.T) {
	lib := DefaultLibrary()
	require.NotEmpty(t, lib.Rules)

	// Escaping rules must precede cleanup rules: the brace cleanup depends on
	// the backslash rules having run first.
	lastEscaping := -1
	firstCleanup := -1
	for i, r := range lib.Rules {
		switch r.Category {
		case CategoryEscaping:
			lastEscaping = i
		case CategoryCleanup:
			if firstCleanup == -1 {
				firstCleanup = i
			}
		}
	}
	require.GreaterOrEqual(t, lastEscaping, 0)
	require.GreaterOrEqual(t, firstCleanup, 0)
	assert.Less(t, lastEscaping, firstCleanup)
}

func TestSubsetPreservesOrder(t *testing.T) {
	lib := DefaultLibrary()
	subset := lib.Subset(CategoryEscaping, CategoryCleanup)
	require.NotEmpty(t, subset)
	for _, r := range subset {
		assert.NotEqual(t, CategoryCharRemoval, r.Category)
	}

	charOnly := lib.Subset(CategoryCharRemoval)
	for _, r := range charOnly {
		assert.Equal(t, CategoryCharRemoval, r.Category)
	}
	assert.Equal(t, len(lib.Rules), len(subset)+len(charOnly))
}

func TestLoadLibrary(t *testing.T) {
	content := `version = "2"

[[rules]]
pattern = '\\textbackslash\{\}'
replacement = '\'
category = "escaping"
note = "simple over-escape"

[[rules]]
pattern = '\\\{'
replacement = '{'
category = "cleanup"
`
	path := filepath.Join(t.TempDir(), "patterns.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lib, err := LoadLibrary(path)
	require.NoError(t, err)
	assert.Equal(t, "2", lib.Version)
	require.Len(t, lib.Rules, 2)
	assert.Equal(t, CategoryEscaping, lib.Rules[0].Category)
	assert.Equal(t, "simple over-escape", lib.Rules[0].Note)
	assert.Equal(t, CategoryCleanup, lib.Rules[1].Category)

	out, report := NewEngine(lib).Repair(`\textbackslash{}section\{Intro}`)
	assert.Equal(t, `\section{Intro}`, out)
	assert.True(t, report.Changed)
}

func TestLoadLibraryErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLibrary(filepath.Join(dir, "absent.toml"))
		assert.Error(t, err)
	})

	t.Run("invalid regex", func(t *testing.T) {
		path := filepath.Join(dir, "badre.toml")
		require.NoError(t, os.WriteFile(path, []byte("[[rules]]\npattern = '('\nreplacement = ''\ncategory = \"escaping\"\n"), 0o644))
		_, err := LoadLibrary(path)
		assert.ErrorContains(t, err, "invalid pattern")
	})

	t.Run("unknown category", func(t *testing.T) {
		path := filepath.Join(dir, "badcat.toml")
		require.NoError(t, os.WriteFile(path, []byte("[[rules]]\npattern = 'x'\nreplacement = ''\ncategory = \"mystery\"\n"), 0o644))
		_, err := LoadLibrary(path)
		assert.ErrorContains(t, err, "unknown rule category")
	})

	t.Run("no rules", func(t *testing.T) {
		path := filepath.Join(dir, "empty.toml")
		require.NoError(t, os.WriteFile(path, []byte("version = \"1\"\n"), 0o644))
		_, err := LoadLibrary(path)
		assert.ErrorContains(t, err, "no rules")
	})
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "escaping", CategoryEscaping.String())
	assert.Equal(t, "cleanup", CategoryCleanup.String())
	assert.Equal(t, "char-removal", CategoryCharRemoval.String())
	assert.Equal(t, "unknown", Category(9).String())
}
