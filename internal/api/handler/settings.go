package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/policy"
)

// PlatformSettings is the read-only platform configuration shown to super-admins.
type PlatformSettings struct {
	LegalGrossLimitLbs float64  `json:"legal_gross_limit_lbs"`
	DirectoryDriver    string   `json:"directory_driver"`
	WebhookWorkers     int      `json:"webhook_workers"`
	WebhookEvents      []string `json:"webhook_events"`
	CompanyAdminDenied []string `json:"company_admin_denied_prefixes"`
}

// SettingsHandler serves GET /api/admin/settings.
type SettingsHandler struct {
	settings PlatformSettings
}

func NewSettingsHandler(legalLimit float64, directoryDriver string, webhookWorkers int) *SettingsHandler {
	return &SettingsHandler{settings: PlatformSettings{
		LegalGrossLimitLbs: legalLimit,
		DirectoryDriver:    directoryDriver,
		WebhookWorkers:     webhookWorkers,
		WebhookEvents:      domain.KnownEvents,
		CompanyAdminDenied: policy.DenyList(),
	}}
}

func (h *SettingsHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.settings)
}
