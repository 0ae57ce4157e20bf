package project

import (
	"fmt"
	"regexp"
	"strings"

	"ghostwriterd/internal/core"
)

// Validation rules for user-visible names and chapter content.
const (
	maxNovelNameLength    = 100
	maxChapterTitleLength = 200
	maxContentLength      = 1_000_000
)

// forbiddenNameChars are characters that cannot appear in file names across
// the supported platforms.
var forbiddenNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// ValidateNovelName rejects empty, oversized, or unfilable novel names
// before any directory is created.
func ValidateNovelName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.NewValidationError("novel name is required")
	}
	if len(name) > maxNovelNameLength {
		return core.NewValidationError(fmt.Sprintf("novel name must be no more than %d characters", maxNovelNameLength))
	}
	if forbiddenNameChars.MatchString(name) {
		return core.NewValidationError(`novel name contains invalid characters (avoid < > : " / \ | ? *)`)
	}
	return nil
}

// ValidateChapterTitle rejects empty or oversized chapter titles.
func ValidateChapterTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return core.NewValidationError("chapter title is required")
	}
	if len(title) > maxChapterTitleLength {
		return core.NewValidationError(fmt.Sprintf("chapter title must be no more than %d characters", maxChapterTitleLength))
	}
	return nil
}

// ValidateContent caps chapter content length.
func ValidateContent(content string) error {
	if len(content) > maxContentLength {
		return core.NewValidationError(fmt.Sprintf("content is too long (maximum %d characters)", maxContentLength))
	}
	return nil
}

// SanitizeFileName converts a display name into a safe directory name:
// forbidden characters become underscores and whitespace collapses.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = forbiddenNameChars.ReplaceAllString(name, "_")
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > maxNovelNameLength {
		name = name[:maxNovelNameLength]
	}
	return name
}
