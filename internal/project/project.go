// Package project manages novel projects on local disk: a JSON metadata
// sidecar per novel plus one numbered text file per chapter.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"

	"ghostwriterd/internal/core"
)

const metadataFileName = "novel.json"

// NovelMetadata is the novel.json sidecar.
type NovelMetadata struct {
	Title        string            `json:"title"`
	Created      time.Time         `json:"created"`
	LastModified time.Time         `json:"lastModified"`
	Chapters     []ChapterMetadata `json:"chapters"`
}

// ChapterMetadata is one chapter's entry in the sidecar.
type ChapterMetadata struct {
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
	// ContentHash is an xxhash digest of the last saved content, used to
	// skip the write and the metadata bump when nothing changed.
	ContentHash string `json:"contentHash,omitempty"`
}

// NovelInfo is a summary row for the project picker.
type NovelInfo struct {
	Path         string    `json:"path"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"lastModified"`
}

// Library manages the novels below a root directory. Operations also accept
// explicit novel paths outside the root, matching the original app where the
// user picks locations freely.
type Library struct {
	root string
	now  func() time.Time
}

// NewLibrary creates a Library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{root: dir, now: time.Now}
}

// Root returns the default parent directory for new novels.
func (l *Library) Root() string {
	return l.root
}

// CreateNovel creates the novel directory and its metadata sidecar,
// returning the novel path. An empty parentDir defaults to the library root.
func (l *Library) CreateNovel(name, parentDir string) (string, error) {
	if err := ValidateNovelName(name); err != nil {
		return "", err
	}
	if parentDir == "" {
		parentDir = l.root
	}

	novelPath := filepath.Join(parentDir, SanitizeFileName(name))
	if _, err := os.Stat(filepath.Join(novelPath, metadataFileName)); err == nil {
		return "", core.NewValidationError(fmt.Sprintf("a novel already exists at %s", novelPath))
	}

	if err := os.MkdirAll(novelPath, 0o755); err != nil {
		return "", core.NewInternalError("failed to create novel directory", err)
	}

	now := l.now()
	meta := &NovelMetadata{
		Title:        name,
		Created:      now,
		LastModified: now,
		Chapters:     []ChapterMetadata{},
	}
	if err := l.writeMetadata(novelPath, meta); err != nil {
		return "", err
	}

	return novelPath, nil
}

// SaveChapter writes the chapter file and upserts its sidecar entry. A save
// with unchanged content is a no-op: the recorded content hash short-circuits
// the write and the lastModified bump.
func (l *Library) SaveChapter(novelPath string, number int, content string) error {
	if number < 1 {
		return core.NewValidationError("chapter number must be positive")
	}
	if err := ValidateContent(content); err != nil {
		return err
	}

	meta, err := l.LoadMetadata(novelPath)
	if err != nil {
		return err
	}

	hash := fmt.Sprintf("%016x", xxhash.Sum64String(content))
	now := l.now()

	idx := -1
	for i := range meta.Chapters {
		if meta.Chapters[i].Number == number {
			idx = i
			break
		}
	}
	if idx >= 0 && meta.Chapters[idx].ContentHash == hash {
		return nil
	}

	path := filepath.Join(novelPath, chapterFileName(number))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return core.NewInternalError("failed to write chapter file", err)
	}

	if idx >= 0 {
		meta.Chapters[idx].LastModified = now
		meta.Chapters[idx].ContentHash = hash
	} else {
		meta.Chapters = append(meta.Chapters, ChapterMetadata{
			Number:       number,
			Title:        fmt.Sprintf("Chapter %d", number),
			Created:      now,
			LastModified: now,
			ContentHash:  hash,
		})
		sort.Slice(meta.Chapters, func(i, j int) bool {
			return meta.Chapters[i].Number < meta.Chapters[j].Number
		})
	}
	meta.LastModified = now

	return l.writeMetadata(novelPath, meta)
}

// LoadChapter reads a chapter's content. A missing file is a new chapter and
// returns empty content, not an error.
func (l *Library) LoadChapter(novelPath string, number int) (string, error) {
	if number < 1 {
		return "", core.NewValidationError("chapter number must be positive")
	}

	data, err := os.ReadFile(filepath.Join(novelPath, chapterFileName(number)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", core.NewInternalError("failed to read chapter file", err)
	}
	return string(data), nil
}

// LoadMetadata parses the novel.json sidecar.
func (l *Library) LoadMetadata(novelPath string) (*NovelMetadata, error) {
	data, err := os.ReadFile(filepath.Join(novelPath, metadataFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NewNotFoundError(fmt.Sprintf("no novel at %s", novelPath))
	}
	if err != nil {
		return nil, core.NewInternalError("failed to read novel metadata", err)
	}

	var meta NovelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, core.NewInternalError("novel metadata is corrupt", err)
	}
	if meta.Chapters == nil {
		meta.Chapters = []ChapterMetadata{}
	}
	return &meta, nil
}

// ListNovels scans the library root for novels, reading only the title and
// lastModified fields from each sidecar. Results are newest first. A missing
// root is an empty library, not an error.
func (l *Library) ListNovels() ([]NovelInfo, error) {
	entries, err := os.ReadDir(l.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []NovelInfo{}, nil
	}
	if err != nil {
		return nil, core.NewInternalError("failed to scan library", err)
	}

	novels := make([]NovelInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(l.root, entry.Name())
		data, err := os.ReadFile(filepath.Join(path, metadataFileName))
		if err != nil {
			continue // not a novel directory
		}

		title := gjson.GetBytes(data, "title").String()
		if title == "" {
			continue
		}
		modified, _ := time.Parse(time.RFC3339, gjson.GetBytes(data, "lastModified").String())
		novels = append(novels, NovelInfo{Path: path, Title: title, LastModified: modified})
	}

	sort.Slice(novels, func(i, j int) bool {
		return novels[i].LastModified.After(novels[j].LastModified)
	})
	return novels, nil
}

func (l *Library) writeMetadata(novelPath string, meta *NovelMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return core.NewInternalError("failed to encode novel metadata", err)
	}
	if err := os.WriteFile(filepath.Join(novelPath, metadataFileName), data, 0o644); err != nil {
		return core.NewInternalError("failed to write novel metadata", err)
	}
	return nil
}

// chapterFileName is the on-disk name for a chapter, e.g. chapter-03.md.
func chapterFileName(number int) string {
	return fmt.Sprintf("chapter-%02d.md", number)
}
