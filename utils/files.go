package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"technova/models"
)

// Per-track upload rules. Paper presentations are documents, ideathon
// entries are decks.
var (
	paperExtensions    = []string{".pdf", ".doc", ".docx"}
	ideathonExtensions = []string{".pdf", ".ppt", ".pptx"}
)

const (
	MaxPaperFileSize    = 10 << 20 // 10MB
	MaxIdeathonFileSize = 20 << 20 // 20MB
)

// AllowedExtensions returns the upload allow-list for a track.
func AllowedExtensions(eventType string) []string {
	if eventType == models.EventIdeathon {
		return ideathonExtensions
	}
	return paperExtensions
}

// MaxFileSize returns the upload size cap in bytes for a track.
func MaxFileSize(eventType string) int64 {
	if eventType == models.EventIdeathon {
		return MaxIdeathonFileSize
	}
	return MaxPaperFileSize
}

// ValidateSubmissionFile checks extension and size against the track's
// rules. The returned error names the violated limit, and is safe to show
// to the user.
func ValidateSubmissionFile(eventType, fileName string, size int64) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	allowed := AllowedExtensions(eventType)

	ok := false
	for _, a := range allowed {
		if ext == a {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("file type %s is not allowed for %s; allowed types: %s",
			ext, eventType, strings.Join(allowed, ", "))
	}

	if max := MaxFileSize(eventType); size > max {
		return fmt.Errorf("file exceeds the %dMB limit for %s", max>>20, eventType)
	}
	return nil
}
