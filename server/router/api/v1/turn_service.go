package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lorekeeper/lorekeeper/ai/core/llm"
	"github.com/lorekeeper/lorekeeper/ai/turn"
)

type processTurnRequest struct {
	Message string `json:"message"`
}

// processTurn is the caller-facing turn endpoint. Memory failures inside the
// pipeline are invisible here; the error surface distinguishes a storage
// failure (500) and a misconfigured narrative backend (500, operator must
// act) from a transient narrative failure (502, the caller may retry).
func (s *APIV1Service) processTurn(c echo.Context) error {
	adventure, err := s.findAdventureByUID(c)
	if err != nil {
		return err
	}

	req := &processTurnRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	result, err := s.TurnRunner.ProcessTurn(c.Request().Context(), adventure.UID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, turn.ErrEmptyMessage):
			return echo.NewHTTPError(http.StatusBadRequest, "message is required")
		case errors.Is(err, turn.ErrAdventureNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "adventure not found")
		case errors.Is(err, turn.ErrStoreFailure):
			return echo.NewHTTPError(http.StatusInternalServerError, "storage backend failure").SetInternal(err)
		case llm.IsMisconfigured(err):
			return echo.NewHTTPError(http.StatusInternalServerError, "narrative backend is misconfigured").SetInternal(err)
		default:
			return echo.NewHTTPError(http.StatusBadGateway, "narrative backend is unavailable").SetInternal(err)
		}
	}

	return c.JSON(http.StatusOK, &TurnResponse{
		Turn: convertTurnFromStore(result.AssistantTurn),
		MemoryReport: MemoryReport{
			Saved:    convertMemoriesFromStore(result.Report.Saved),
			Recalled: convertMemoriesFromStore(result.Report.Recalled),
		},
	})
}
