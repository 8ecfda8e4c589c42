package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetconsult/auth-api/internal/api/metrics"
	"github.com/vetconsult/auth-api/internal/core/domain"
	"github.com/vetconsult/auth-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a pending account and sends a registration code.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.RegisterInput{
		Mobile:    req.Mobile,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.Pet != nil {
		in.Pet = &ports.PetInput{
			Name:      req.Pet.Name,
			Species:   req.Pet.Species,
			Breed:     req.Pet.Breed,
			BirthDate: req.Pet.BirthDate,
		}
	}

	user, err := h.authService.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	metrics.VerificationCodesIssuedTotal.WithLabelValues(string(domain.PurposeRegistration)).Inc()

	return c.JSON(http.StatusCreated, registerResponse{User: user, VerificationRequired: true})
}

// ResendVerification issues a new registration code for a pending account.
//
// @Summary      Resend registration code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      mobileRequest  true  "Mobile number"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req mobileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ResendVerification(c.Request().Context(), req.Mobile); err != nil {
		return err
	}
	metrics.VerificationCodesIssuedTotal.WithLabelValues(string(domain.PurposeRegistration)).Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "verification code sent"})
}

// VerifyRegistration confirms the mobile number and opens the first session.
//
// @Summary      Verify registration
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRegistrationRequest  true  "Mobile and code"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/verify-registration [post]
func (h *AuthHandler) VerifyRegistration(c echo.Context) error {
	var req verifyRegistrationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.VerifyRegistration(c.Request().Context(), req.Mobile, req.Code)
	if err != nil {
		observeVerificationFailure(err)
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{User: res.User, Tokens: res.Tokens})
}

// Login authenticates by mobile number and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Mobile, req.Password, clientInfo(c))
	metrics.LoginAttemptsTotal.WithLabelValues("user", loginResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{User: res.User, Tokens: res.Tokens})
}

// Refresh redeems a refresh token once and returns a rotated pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  tokensResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken, clientInfo(c))
	metrics.RefreshTotal.WithLabelValues(refreshResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokensResponse{Tokens: *pair})
}

// Logout revokes the given refresh token of the caller.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      logoutRequest  false  "Refresh token to revoke"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req logoutRequest
	// A missing or malformed body still logs out successfully.
	_ = c.Bind(&req)

	if err := h.authService.Logout(c.Request().Context(), p.ID, req.RefreshToken); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("logout").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// LogoutAll revokes every refresh token of the caller.
//
// @Summary      Logout from all devices
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.authService.LogoutAll(c.Request().Context(), p.ID); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("logout_all").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out from all devices"})
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Me(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UpdateProfile changes the caller's name.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/me [patch]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.authService.UpdateProfile(c.Request().Context(), p.ID, req.FirstName, req.LastName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// ChangePassword replaces the caller's password and revokes every session.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/change-password [patch]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ChangePassword(c.Request().Context(), p.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("password_change").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed, please log in again"})
}

// ForgotPassword sends a password reset code.
//
// @Summary      Forgot password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      mobileRequest  true  "Mobile number"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req mobileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	issued, err := h.authService.ForgotPassword(c.Request().Context(), req.Mobile)
	if err != nil {
		return err
	}
	if issued {
		metrics.VerificationCodesIssuedTotal.WithLabelValues(string(domain.PurposePasswordReset)).Inc()
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "if the number is registered, a reset code has been sent"})
}

// ResetPassword consumes a reset code and sets a new password.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Mobile, code and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ResetPassword(c.Request().Context(), req.Mobile, req.Code, req.NewPassword); err != nil {
		observeVerificationFailure(err)
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("password_reset").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "password reset, please log in"})
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserInactive):
		return "inactive"
	case errors.Is(err, domain.ErrUserNotVerified):
		return "unverified"
	default:
		return "error"
	}
}

func refreshResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidToken):
		return "rejected"
	case errors.Is(err, domain.ErrUserInactive):
		return "inactive"
	default:
		return "error"
	}
}

func observeVerificationFailure(err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		metrics.VerificationFailuresTotal.WithLabelValues("invalid_code").Inc()
	case errors.Is(err, domain.ErrCodeNotFound):
		metrics.VerificationFailuresTotal.WithLabelValues("not_found").Inc()
	case errors.Is(err, domain.ErrTooManyAttempts):
		metrics.VerificationFailuresTotal.WithLabelValues("too_many_attempts").Inc()
	}
}
