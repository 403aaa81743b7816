// Package v1 exposes the REST surface: adventure, memory, and character CRUD
// plus the turn endpoint that drives the narrative pipeline.
package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lorekeeper/lorekeeper/ai/turn"
	"github.com/lorekeeper/lorekeeper/internal/profile"
	"github.com/lorekeeper/lorekeeper/store"
)

// TurnRunner runs one player message through the turn pipeline.
type TurnRunner interface {
	ProcessTurn(ctx context.Context, adventureUID, messageText string) (*turn.Result, error)
}

type APIV1Service struct {
	Profile    *profile.Profile
	Store      *store.Store
	TurnRunner TurnRunner
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, runner TurnRunner) *APIV1Service {
	return &APIV1Service{
		Profile:    profile,
		Store:      store,
		TurnRunner: runner,
	}
}

// RegisterRoutes mounts all v1 routes under the given group.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	g.POST("/adventures", s.createAdventure)
	g.GET("/adventures", s.listAdventures)
	g.GET("/adventures/:uid", s.getAdventure)
	g.PATCH("/adventures/:uid", s.updateAdventure)
	g.DELETE("/adventures/:uid", s.deleteAdventure)

	g.GET("/adventures/:uid/memories", s.listMemories)
	g.POST("/adventures/:uid/memories", s.createMemory)
	g.PATCH("/adventures/:uid/memories/:id", s.updateMemory)
	g.DELETE("/adventures/:uid/memories/:id", s.deleteMemory)

	g.GET("/adventures/:uid/characters", s.listCharacters)
	g.POST("/adventures/:uid/characters", s.createCharacter)
	g.GET("/adventures/:uid/characters/:id", s.getCharacter)
	g.PUT("/adventures/:uid/characters/:id", s.updateCharacter)
	g.DELETE("/adventures/:uid/characters/:id", s.deleteCharacter)

	g.POST("/adventures/:uid/turns", s.processTurn)
}

// findAdventureByUID resolves the :uid path param or replies 404.
func (s *APIV1Service) findAdventureByUID(c echo.Context) (*store.Adventure, error) {
	uid := c.Param("uid")
	adventure, err := s.Store.GetAdventure(c.Request().Context(), &store.FindAdventure{UID: &uid})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load adventure").SetInternal(err)
	}
	if adventure == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "adventure not found")
	}
	return adventure, nil
}
