package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lorekeeper/lorekeeper/store"
)

type characterRequest struct {
	Name       string                `json:"name"`
	Race       string                `json:"race"`
	Class      string                `json:"class"`
	Level      int                   `json:"level"`
	Stats      *store.CharacterStats `json:"stats"`
	Traits     []string              `json:"traits"`
	HitPoints  *HitPoints            `json:"hitPoints"`
	ArmorClass int                   `json:"armorClass"`
}

func (r *characterRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if strings.TrimSpace(r.Race) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "race is required")
	}
	if strings.TrimSpace(r.Class) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "class is required")
	}
	return nil
}

// applyDefaults fills the fields the caller may omit. Values are stored as
// provided; no derived-stat arithmetic happens server-side.
func (r *characterRequest) applyDefaults() {
	if r.Level <= 0 {
		r.Level = 1
	}
	if r.HitPoints == nil {
		r.HitPoints = &HitPoints{Current: 10, Maximum: 10}
	}
	if r.ArmorClass <= 0 {
		r.ArmorClass = 10
	}
	if r.Stats == nil {
		r.Stats = &store.CharacterStats{}
	}
	if r.Traits == nil {
		r.Traits = []string{}
	}
}

func (s *APIV1Service) listCharacters(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	characters, err := s.Store.ListGameCharacters(c.Request().Context(), &store.FindGameCharacter{AdventureID: &adventure.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list characters").SetInternal(err)
	}

	list := make([]*GameCharacter, 0, len(characters))
	for _, character := range characters {
		list = append(list, convertCharacterFromStore(character))
	}
	return c.JSON(http.StatusOK, list)
}

func (s *APIV1Service) createCharacter(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}

	req := &characterRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	req.applyDefaults()

	now := time.Now().Unix()
	character, err := s.Store.CreateGameCharacter(c.Request().Context(), &store.GameCharacter{
		ID:               uuid.New().String(),
		AdventureID:      adventure.ID,
		Name:             req.Name,
		Race:             req.Race,
		Class:            req.Class,
		Level:            req.Level,
		Stats:            *req.Stats,
		Traits:           req.Traits,
		HitPointsCurrent: req.HitPoints.Current,
		HitPointsMax:     req.HitPoints.Maximum,
		ArmorClass:       req.ArmorClass,
		CreatedTs:        now,
		UpdatedTs:        now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create character").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertCharacterFromStore(character))
}

func (s *APIV1Service) getCharacter(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	character, err := s.findCharacterByID(c, adventure.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertCharacterFromStore(character))
}

func (s *APIV1Service) updateCharacter(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	character, err := s.findCharacterByID(c, adventure.ID)
	if err != nil {
		return err
	}

	req := &characterRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	req.applyDefaults()

	now := time.Now().Unix()
	updated, err := s.Store.UpdateGameCharacter(c.Request().Context(), &store.UpdateGameCharacter{
		ID:               character.ID,
		AdventureID:      adventure.ID,
		Name:             &req.Name,
		Race:             &req.Race,
		Class:            &req.Class,
		Level:            &req.Level,
		Stats:            req.Stats,
		Traits:           &req.Traits,
		HitPointsCurrent: &req.HitPoints.Current,
		HitPointsMax:     &req.HitPoints.Maximum,
		ArmorClass:       &req.ArmorClass,
		UpdatedTs:        &now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update character").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertCharacterFromStore(updated))
}

func (s *APIV1Service) deleteCharacter(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}
	character, err := s.findCharacterByID(c, adventure.ID)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteGameCharacter(c.Request().Context(), &store.DeleteGameCharacter{ID: character.ID, AdventureID: adventure.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete character").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// findCharacterByID resolves the :id path param within one adventure or replies 404.
func (s *APIV1Service) findCharacterByID(c echo.Context, adventureID int32) (*store.GameCharacter, error) {
	id := c.Param("id")
	character, err := s.Store.GetGameCharacter(c.Request().Context(), &store.FindGameCharacter{ID: &id, AdventureID: &adventureID})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load character").SetInternal(err)
	}
	if character == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "character not found")
	}
	return character, nil
}
