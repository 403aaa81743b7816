package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/lorekeeper/lorekeeper/store"
)

type createAdventureRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PlayerCount int32  `json:"playerCount"`
}

type updateAdventureRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PlayerCount *int32  `json:"playerCount"`
}

func (s *APIV1Service) createAdventure(c echo.Context) error {
	req := &createAdventureRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.PlayerCount <= 0 {
		req.PlayerCount = 1
	}

	now := time.Now().Unix()
	adventure, err := s.Store.CreateAdventure(c.Request().Context(), &store.Adventure{
		UID:         shortuuid.New(),
		Name:        req.Name,
		Description: req.Description,
		PlayerCount: req.PlayerCount,
		CreatedTs:   now,
		UpdatedTs:   now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create adventure").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertAdventureFromStore(adventure))
}

func (s *APIV1Service) listAdventures(c echo.Context) error {
	adventures, err := s.Store.ListAdventures(c.Request().Context(), &store.FindAdventure{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list adventures").SetInternal(err)
	}

	list := make([]*Adventure, 0, len(adventures))
	for _, adventure := range adventures {
		list = append(list, convertAdventureFromStore(adventure))
	}
	return c.JSON(http.StatusOK, list)
}

func (s *APIV1Service) getAdventure(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	turns, err := s.Store.ListConversationTurns(ctx, &store.FindConversationTurn{AdventureID: &adventure.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load turns").SetInternal(err)
	}
	memories, err := s.Store.ListMemoryRecords(ctx, &store.FindMemoryRecord{AdventureID: &adventure.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load memories").SetInternal(err)
	}
	characters, err := s.Store.ListGameCharacters(ctx, &store.FindGameCharacter{AdventureID: &adventure.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load characters").SetInternal(err)
	}

	detail := &AdventureDetail{
		Adventure:  *convertAdventureFromStore(adventure),
		Turns:      make([]*ConversationTurn, 0, len(turns)),
		Memories:   convertMemoriesFromStore(memories),
		Characters: make([]*GameCharacter, 0, len(characters)),
	}
	for _, turn := range turns {
		detail.Turns = append(detail.Turns, convertTurnFromStore(turn))
	}
	for _, character := range characters {
		detail.Characters = append(detail.Characters, convertCharacterFromStore(character))
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *APIV1Service) updateAdventure(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}

	req := &updateAdventureRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if req.Name == nil && req.Description == nil && req.PlayerCount == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name cannot be empty")
	}

	now := time.Now().Unix()
	updated, err := s.Store.UpdateAdventure(c.Request().Context(), &store.UpdateAdventure{
		ID:          adventure.ID,
		Name:        req.Name,
		Description: req.Description,
		PlayerCount: req.PlayerCount,
		UpdatedTs:   &now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update adventure").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertAdventureFromStore(updated))
}

func (s *APIV1Service) deleteAdventure(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteAdventure(c.Request().Context(), &store.DeleteAdventure{ID: adventure.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete adventure").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
