package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ghostwriterd/internal/core"
)

type createNovelRequest struct {
	Name string `json:"name"`
	// ParentDir overrides the library root, matching the original app's
	// folder picker. Empty means the configured root.
	ParentDir string `json:"parentDir"`
}

// CreateNovel handles POST /bridge/create-novel
func (h *Handler) CreateNovel(c echo.Context) error {
	var req createNovelRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	path, err := h.library.CreateNovel(req.Name, req.ParentDir)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"path":    path,
	})
}

type chapterRequest struct {
	NovelPath     string `json:"novelPath"`
	ChapterNumber int    `json:"chapterNumber"`
	Content       string `json:"content"`
}

// SaveChapter handles POST /bridge/save-chapter
func (h *Handler) SaveChapter(c echo.Context) error {
	var req chapterRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	if err := h.library.SaveChapter(req.NovelPath, req.ChapterNumber, req.Content); err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// LoadChapter handles POST /bridge/load-chapter. A chapter that was never
// saved loads as empty content, not an error.
func (h *Handler) LoadChapter(c echo.Context) error {
	var req chapterRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	content, err := h.library.LoadChapter(req.NovelPath, req.ChapterNumber)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"content": content,
	})
}

type novelPathRequest struct {
	NovelPath string `json:"novelPath"`
}

// LoadNovelMetadata handles POST /bridge/load-novel-metadata
func (h *Handler) LoadNovelMetadata(c echo.Context) error {
	var req novelPathRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	meta, err := h.library.LoadMetadata(req.NovelPath)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"metadata": meta,
	})
}

// ListNovels handles POST /bridge/list-novels
func (h *Handler) ListNovels(c echo.Context) error {
	novels, err := h.library.ListNovels()
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"novels":  novels,
	})
}
