package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"technova/models"
)

func TestValidateSubmissionFile(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		fileName  string
		size      int64
		wantErr   bool
	}{
		{"paper pdf", models.EventPaperPresentation, "survey.pdf", 1 << 20, false},
		{"paper docx", models.EventPaperPresentation, "survey.docx", 1 << 20, false},
		{"paper uppercase extension", models.EventPaperPresentation, "SURVEY.PDF", 1 << 20, false},
		{"paper deck rejected", models.EventPaperPresentation, "survey.pptx", 1 << 20, true},
		{"paper at limit", models.EventPaperPresentation, "survey.pdf", MaxPaperFileSize, false},
		{"paper over limit", models.EventPaperPresentation, "survey.pdf", MaxPaperFileSize + 1, true},
		{"ideathon pptx", models.EventIdeathon, "pitch.pptx", 15 << 20, false},
		{"ideathon pdf", models.EventIdeathon, "pitch.pdf", 1 << 20, false},
		{"ideathon doc rejected", models.EventIdeathon, "pitch.docx", 1 << 20, true},
		{"ideathon over limit", models.EventIdeathon, "pitch.pptx", MaxIdeathonFileSize + 1, true},
		{"no extension", models.EventPaperPresentation, "survey", 1 << 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmissionFile(tt.eventType, tt.fileName, tt.size)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
