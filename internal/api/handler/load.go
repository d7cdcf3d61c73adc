package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/api/middleware"
	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// LoadHandler serves the load lifecycle route. The CRUD routes go through
// the generic Resource handler.
type LoadHandler struct {
	svc ports.LoadService
}

func NewLoadHandler(svc ports.LoadService) *LoadHandler {
	return &LoadHandler{svc: svc}
}

// Transition handles POST /api/loads/:id/status.
//
// @Summary      Move a load to its next status
// @Tags         loads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Load id"
// @Param        body  body      LoadStatusRequest  true  "Target status"
// @Success      200   {object}  domain.Load
// @Failure      400   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /api/loads/{id}/status [post]
func (h *LoadHandler) Transition(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[LoadStatusRequest](c)
	if err != nil {
		return err
	}
	load, err := h.svc.Transition(c.Request().Context(), id, c.Param("id"), domain.LoadStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, load)
}

// errorBody documents the {"msg"} error envelope.
type errorBody struct {
	Msg string `json:"msg"`
}
