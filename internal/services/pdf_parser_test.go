package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t\n  ", ""},
		{"trims lines", "  Rechnung  \n  Nr. 42 ", "Rechnung\nNr. 42"},
		{"drops blank lines", "a\n\n\n b \n\n", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestExtractText_RejectsNonPDF(t *testing.T) {
	p := writeFile(t, t.TempDir(), "fake.pdf", "this is not a pdf")

	content, err := NewPDFParserService().ExtractText(p)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoText)
	assert.Nil(t, content)
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := NewPDFParserService().ExtractText("/nonexistent/file.pdf")
	assert.Error(t, err)
}
