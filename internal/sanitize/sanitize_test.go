/*
Copyright © 2025 texneat contributors
*/
package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categories(issues []Issue) []Category {
	out := make([]Category, len(issues))
	for i, issue := range issues {
		out[i] = issue.Category
	}
	return out
}

func TestScanBOMAndNullByte(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("abc\x00def")...)

	issues, err := Scan(data)
	require.NoError(t, err)
	require.Len(t, issues, 2, "expected exactly two issues, got %+v", issues)
	assert.Equal(t, []Category{CategoryBOM, CategoryNullByte}, categories(issues))
	assert.Equal(t, "UTF-8 byte order mark", issues[0].Detail)
	assert.Equal(t, 1, issues[1].Line)
}

func TestScanCleanTextHasNoIssues(t *testing.T) {
	data := []byte("\\section{Einleitung}\nGanz normaler Text.\n")
	issues, err := Scan(data)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestScanNeverFlagsDiacritics(t *testing.T) {
	// Legitimate non-English letters are exempt by invariant.
	data := []byte("Caf\u00e9 na\u00efve \u00dcbung stra\u00dfe ni\u00f1o \u0107evap\u010di\u0107i\n")
	issues, err := Scan(data)
	require.NoError(t, err)
	assert.Empty(t, issues, "diacritics must never be flagged: %+v", issues)
}

func TestScanInvisibleUnicode(t *testing.T) {
	data := []byte("be\u200bfore\nafter\u202e\n")
	issues, err := Scan(data)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, CategoryInvisibleUnicode, issues[0].Category)
	assert.Equal(t, 1, issues[0].Line)
	assert.Equal(t, CategoryInvisibleUnicode, issues[1].Category)
	assert.Equal(t, 2, issues[1].Line)
}

func TestScanControlChars(t *testing.T) {
	data := []byte("tabs\tand\r\nnewlines are fine\nbell\x07is not\n")
	issues, err := Scan(data)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, CategoryControlChar, issues[0].Category)
	assert.Equal(t, 3, issues[0].Line)
	assert.Contains(t, issues[0].Detail, "U+0007")
}

func TestScanMergeMarkers(t *testing.T) {
	t.Run("full conflict block", func(t *testing.T) {
		data := []byte("line\n<<<<<<< HEAD\nours\n=======\ntheirs\n>>>>>>> feature\nline\n")
		issues, err := Scan(data)
		require.NoError(t, err)
		require.Len(t, issues, 3)
		for _, issue := range issues {
			assert.Equal(t, CategoryMergeMarker, issue.Category)
		}
		assert.Equal(t, []int{2, 4, 6}, []int{issues[0].Line, issues[1].Line, issues[2].Line})
	})

	t.Run("bare equals run is legitimate markup", func(t *testing.T) {
		data := []byte("Heading\n=======\nbody text\n")
		issues, err := Scan(data)
		require.NoError(t, err)
		assert.Empty(t, issues, "a lone ======= line must not be flagged")
	})

	t.Run("equals run outside the window is not flagged", func(t *testing.T) {
		var body string
		body += "<<<<<<< HEAD\n"
		for i := 0; i < 15; i++ {
			body += "filler\n"
		}
		body += "=======\n"
		for i := 0; i < 15; i++ {
			body += "filler\n"
		}
		body += ">>>>>>> branch\n"

		issues, err := Scan([]byte(body))
		require.NoError(t, err)
		require.Len(t, issues, 2, "only start and end markers: %+v", issues)
		assert.Equal(t, []Category{CategoryMergeMarker, CategoryMergeMarker}, categories(issues))
	})
}

func TestScanQuoteStyle(t *testing.T) {
	data := []byte("Sie sagte \u201cHallo\u201d und \u2018tsch\u00fcss\u2019\n")
	issues, err := Scan(data)
	require.NoError(t, err)
	require.Len(t, issues, 4)
	for _, issue := range issues {
		assert.Equal(t, CategoryQuoteStyle, issue.Category)
	}
}

func TestScanUndecodableContent(t *testing.T) {
	data := []byte{0xEF, 0xBB, 0xBF, 0xff, 0xfe, 0x00}
	issues, err := Scan(data)
	assert.ErrorIs(t, err, ErrNotText)
	// Stream-level findings are still reported.
	require.NotEmpty(t, issues)
	assert.Equal(t, CategoryBOM, issues[0].Category)
}

func TestClean(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\u200bb\x00c\nbell\x07\n")...)

	out, issues, err := Clean(data)
	require.NoError(t, err)
	assert.Equal(t, "abc\nbell\n", string(out))
	assert.NotEmpty(t, issues)
}

func TestCleanDropsConflictLines(t *testing.T) {
	data := []byte("keep\n<<<<<<< HEAD\nours\n=======\ntheirs\n>>>>>>> branch\nalso keep\n")

	out, _, err := Clean(data)
	require.NoError(t, err)
	assert.Equal(t, "keep\nours\ntheirs\nalso keep\n", string(out))
}

func TestCleanCanonicalizesQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "typographic double quotes",
			input:    "Sie sagte \u201cHallo\u201d zu mir.\n",
			expected: "Sie sagte ``Hallo'' zu mir.\n",
		},
		{
			name:     "typographic single quotes",
			input:    "ein \u2018Wort\u2019 hier\n",
			expected: "ein `Wort' hier\n",
		},
		{
			name:     "straight double quotes alternate per line",
			input:    "say \"one\" and \"two\"\n",
			expected: "say ``one'' and ``two''\n",
		},
		{
			name:     "german low quote opens",
			input:    "\u201eZitat\u201d\n",
			expected: "``Zitat''\n",
		},
		{
			name:     "straight apostrophe is already canonical",
			input:    "it's fine\n",
			expected: "it's fine\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := Clean([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("text \u201cquoted\u201d with\u200b noise\x00\n")...)

	once, _, err := Clean(data)
	require.NoError(t, err)
	twice, issues, err := Clean(once)
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))
	assert.Empty(t, issues, "cleaned output must scan clean")
}

func TestCategoryStrings(t *testing.T) {
	expected := map[Category]string{
		CategoryBOM:              "BOM",
		CategoryNullByte:         "NullByte",
		CategoryMergeMarker:      "MergeMarker",
		CategoryInvisibleUnicode: "InvisibleUnicode",
		CategoryQuoteStyle:       "QuoteStyle",
		CategoryControlChar:      "ControlChar",
	}
	for cat, want := range expected {
		assert.Equal(t, want, cat.String())
	}
	assert.Equal(t, "Unknown", Category(42).String())
}

func TestRemoveBOMVariants(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		encoding string
		size     int
	}{
		{"utf-8", []byte{0xEF, 0xBB, 0xBF, 'a'}, "UTF-8", 3},
		{"utf-16be", []byte{0xFE, 0xFF, 0x00, 'a'}, "UTF-16BE", 2},
		{"utf-16le", []byte{0xFF, 0xFE, 'a', 0x00}, "UTF-16LE", 2},
		{"utf-32be", []byte{0x00, 0x00, 0xFE, 0xFF, 'a'}, "UTF-32BE", 4},
		{"utf-32le", []byte{0xFF, 0xFE, 0x00, 0x00, 'a'}, "UTF-32LE", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, size, found := GetBOMInfo(tt.input)
			require.True(t, found)
			assert.Equal(t, tt.encoding, enc)
			assert.Equal(t, tt.size, size)

			out, changed := RemoveBOM(tt.input)
			assert.True(t, changed)
			assert.Len(t, out, len(tt.input)-size)
		})
	}

	t.Run("no bom", func(t *testing.T) {
		out, changed := RemoveBOM([]byte("plain"))
		assert.False(t, changed)
		assert.Equal(t, "plain", string(out))
	})
}
