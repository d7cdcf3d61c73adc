package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/api/middleware"
	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// IntegrationHandler serves the create routes of API keys and webhooks,
// which return a credential exactly once.
type IntegrationHandler struct {
	keys     ports.APIKeyService
	webhooks ports.WebhookService
}

func NewIntegrationHandler(keys ports.APIKeyService, webhooks ports.WebhookService) *IntegrationHandler {
	return &IntegrationHandler{keys: keys, webhooks: webhooks}
}

type issuedKeyResponse struct {
	*domain.APIKey
	Key string `json:"key"`
}

type registeredWebhookResponse struct {
	*domain.Webhook
	Secret string `json:"secret"`
}

// CreateAPIKey handles POST /api/api-keys.
//
// @Summary      Issue an API key for a scale integration
// @Description  The plaintext key is only returned by this call.
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      APIKeyRequest  true  "Key name"
// @Success      201   {object}  issuedKeyResponse
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Router       /api/api-keys [post]
func (h *IntegrationHandler) CreateAPIKey(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[APIKeyRequest](c)
	if err != nil {
		return err
	}
	key, plaintext, err := h.keys.Issue(c.Request().Context(), id, req.Name, req.CompanyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, issuedKeyResponse{APIKey: key, Key: plaintext})
}

// CreateWebhook handles POST /api/webhooks.
//
// @Summary      Register a webhook
// @Description  The signing secret is only returned by this call.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      WebhookRequest  true  "Subscription"
// @Success      201   {object}  registeredWebhookResponse
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Router       /api/webhooks [post]
func (h *IntegrationHandler) CreateWebhook(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[WebhookRequest](c)
	if err != nil {
		return err
	}
	wh := new(domain.Webhook)
	req.Apply(wh)

	created, secret, err := h.webhooks.Register(c.Request().Context(), id, wh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registeredWebhookResponse{Webhook: created, Secret: secret})
}
