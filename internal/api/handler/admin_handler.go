package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetconsult/auth-api/internal/api/metrics"
	"github.com/vetconsult/auth-api/internal/core/ports"
)

// AdminHandler serves admin sessions and user moderation.
type AdminHandler struct {
	adminService ports.AdminService
}

func NewAdminHandler(adminService ports.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Login authenticates an admin. Admin sessions carry an access token only.
//
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      adminLoginRequest  true  "Admin credentials"
// @Success      200   {object}  adminLoginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/auth/login [post]
func (h *AdminHandler) Login(c echo.Context) error {
	var req adminLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.adminService.Login(c.Request().Context(), req.Email, req.Password, clientInfo(c))
	metrics.LoginAttemptsTotal.WithLabelValues("admin", loginResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminLoginResponse{
		Admin:           res.Admin,
		AccessToken:     res.Tokens.AccessToken,
		AccessExpiresAt: res.Tokens.AccessExpiresAt,
	})
}

// Me returns the authenticated admin.
//
// @Summary      Current admin
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  adminResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/auth/me [get]
func (h *AdminHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	admin, err := h.adminService.Me(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminResponse{Admin: admin})
}

// SetUserStatus activates or deactivates a user. Deactivation revokes all of
// the user's sessions.
//
// @Summary      Set user status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      userStatusRequest  true  "New status"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/users/{id}/status [patch]
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	var req userStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.adminService.SetUserActive(c.Request().Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		return err
	}
	if !*req.IsActive {
		metrics.SessionsRevokedTotal.WithLabelValues("deactivation").Inc()
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// DeleteUser removes a user without pets together with its sessions.
//
// @Summary      Delete user
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.adminService.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
