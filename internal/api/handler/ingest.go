package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/api/middleware"
	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// IngestHandler accepts weigh tickets pushed by scale integrations.
type IngestHandler struct {
	svc ports.WeightService
}

func NewIngestHandler(svc ports.WeightService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

// Weight handles POST /api/ingest/weights.
//
// @Summary      Ingest a weigh ticket from a scale
// @Tags         ingest
// @Accept       json
// @Produce      json
// @Param        X-API-Key  header    string         true  "Integration key"
// @Param        body       body      IngestRequest  true  "Scale reading"
// @Success      201        {object}  domain.Weight
// @Failure      400        {object}  errorBody
// @Failure      401        {object}  errorBody
// @Failure      409        {object}  errorBody
// @Failure      429        {object}  errorBody
// @Router       /api/ingest/weights [post]
func (h *IngestHandler) Weight(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[IngestRequest](c)
	if err != nil {
		return err
	}
	w := new(domain.Weight)
	req.Apply(w)
	w.TicketNumber = req.TicketNumber

	created, err := h.svc.Ingest(c.Request().Context(), id, w)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}
