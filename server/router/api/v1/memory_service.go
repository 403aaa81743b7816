package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lorekeeper/lorekeeper/store"
)

type createMemoryRequest struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

type updateMemoryRequest struct {
	Text *string   `json:"text"`
	Tags *[]string `json:"tags"`
}

func (s *APIV1Service) listMemories(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	memories, err := s.Store.ListMemoryRecords(c.Request().Context(), &store.FindMemoryRecord{AdventureID: &adventure.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list memories").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertMemoriesFromStore(memories))
}

func (s *APIV1Service) createMemory(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}

	req := &createMemoryRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	memory, err := s.Store.CreateMemoryRecord(c.Request().Context(), &store.MemoryRecord{
		ID:          uuid.New().String(),
		AdventureID: adventure.ID,
		Text:        req.Text,
		Tags:        dedupeTags(req.Tags),
		CreatedTs:   time.Now().Unix(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create memory").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertMemoryFromStore(memory))
}

func (s *APIV1Service) updateMemory(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	memory, err := s.findMemoryByID(c, adventure.ID)
	if err != nil {
		return err
	}

	req := &updateMemoryRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if req.Text == nil && req.Tags == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	if req.Text != nil && strings.TrimSpace(*req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text cannot be empty")
	}
	if req.Tags != nil {
		deduped := dedupeTags(*req.Tags)
		req.Tags = &deduped
	}

	updated, err := s.Store.UpdateMemoryRecord(c.Request().Context(), &store.UpdateMemoryRecord{
		ID:          memory.ID,
		AdventureID: adventure.ID,
		Text:        req.Text,
		Tags:        req.Tags,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update memory").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertMemoryFromStore(updated))
}

func (s *APIV1Service) deleteMemory(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	memory, err := s.findMemoryByID(c, adventure.ID)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteMemoryRecord(c.Request().Context(), &store.DeleteMemoryRecord{ID: memory.ID, AdventureID: adventure.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete memory").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// findMemoryByID resolves the :id path param within one adventure or replies 404.
func (s *APIV1Service) findMemoryByID(c echo.Context, adventureID int32) (*store.MemoryRecord, error) {
	id := c.Param("id")
	memory, err := s.Store.GetMemoryRecord(c.Request().Context(), &store.FindMemoryRecord{ID: &id, AdventureID: &adventureID})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load memory").SetInternal(err)
	}
	if memory == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "memory not found")
	}
	return memory, nil
}

// dedupeTags drops duplicate and blank tags, preserving first-seen order.
func dedupeTags(tags []string) []string {
	deduped := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		deduped = append(deduped, tag)
	}
	return deduped
}
