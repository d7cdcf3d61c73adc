package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/api/middleware"
	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// AccountHandler serves the caller's own identity and the account and
// dashboard views built on it.
type AccountHandler struct {
	users     ports.UserService
	cities    ports.CityService
	dashboard ports.DashboardService
}

func NewAccountHandler(users ports.UserService, cities ports.CityService, dashboard ports.DashboardService) *AccountHandler {
	return &AccountHandler{users: users, cities: cities, dashboard: dashboard}
}

type meResponse struct {
	User              domain.Identity `json:"user"`
	CompanyRestricted bool            `json:"company_restricted"`
}

// Me handles GET /api/auth/me and GET /api/city-auth/me.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/auth/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{User: id, CompanyRestricted: middleware.CompanyRestricted(c)})
}

// CompanyStats handles GET /api/dashboard/stats.
//
// @Summary      Company dashboard counters
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.CompanyStats
// @Router       /api/dashboard/stats [get]
func (h *AccountHandler) CompanyStats(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	stats, err := h.dashboard.CompanyStats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// CityStats handles GET /api/city-dashboard/stats.
//
// @Summary      City dashboard counters
// @Tags         city
// @Produce      json
// @Security     BearerAuth
// @Param        city_id  query     string  false  "City (super-admin only)"
// @Success      200      {object}  ports.CityStats
// @Router       /api/city-dashboard/stats [get]
func (h *AccountHandler) CityStats(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	stats, err := h.dashboard.CityStats(c.Request().Context(), id, c.QueryParam("city_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// ListCompanyUsers handles GET /api/users and GET /api/admin/users.
//
// @Summary      List company accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Company (super-admin only)"
// @Success      200  {array}   domain.CompanyUser
// @Router       /api/admin/users [get]
func (h *AccountHandler) ListCompanyUsers(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	users, err := h.users.ListCompanyUsers(c.Request().Context(), id, c.QueryParam("company_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"data": users})
}

// CreateCompanyUser handles POST /api/admin/users.
//
// @Summary      Create a company account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      CreateUserRequest  true  "Account"
// @Success      201   {object}  domain.CompanyUser
// @Failure      409   {object}  errorBody
// @Router       /api/admin/users [post]
func (h *AccountHandler) CreateCompanyUser(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[CreateUserRequest](c)
	if err != nil {
		return err
	}
	u, err := h.users.CreateCompanyUser(c.Request().Context(), id, ports.CreateCompanyUserInput{
		ID:        req.ID,
		Email:     req.Email,
		Name:      req.Name,
		CompanyID: req.CompanyID,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

// UpdateCompanyUser handles PATCH /api/admin/users/:id.
//
// @Summary      Change or deactivate a company account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Account id"
// @Param        body  body      UpdateUserRequest  true  "Changes"
// @Success      200   {object}  domain.CompanyUser
// @Router       /api/admin/users/{id} [patch]
func (h *AccountHandler) UpdateCompanyUser(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[UpdateUserRequest](c)
	if err != nil {
		return err
	}
	u, err := h.users.UpdateCompanyUser(c.Request().Context(), id, c.Param("id"), ports.UpdateCompanyUserInput{
		Active:  req.Active,
		IsAdmin: req.IsAdmin,
		Name:    req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// ListCityUsers handles GET /api/city-users.
func (h *AccountHandler) ListCityUsers(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	users, err := h.users.ListCityUsers(c.Request().Context(), id, c.QueryParam("city_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"data": users})
}

// CitySettings handles GET /api/city-settings.
//
// @Summary      City enforcement settings
// @Tags         city
// @Produce      json
// @Security     BearerAuth
// @Param        city_id  query     string  false  "City (super-admin only)"
// @Success      200      {object}  domain.City
// @Router       /api/city-settings [get]
func (h *AccountHandler) CitySettings(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	city, err := h.cities.Settings(c.Request().Context(), id, c.QueryParam("city_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, city)
}

// UpdateCitySettings handles PUT /api/city-settings.
func (h *AccountHandler) UpdateCitySettings(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[CitySettingsRequest](c)
	if err != nil {
		return err
	}
	city, err := h.cities.UpdateSettings(c.Request().Context(), id, req.CityID, domain.CitySettings{
		GrossLimitLbs:      req.GrossLimitLbs,
		PermitThresholdLbs: req.PermitThresholdLbs,
		Timezone:           req.Timezone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, city)
}
