package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/timebank/internal/api/dto"
	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/service"
	apperrors "github.com/spec-kit/timebank/pkg/util/errorutil"
)

// SessionHandler exposes login and logout.
type SessionHandler struct {
	auth *service.AuthService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService) *SessionHandler {
	return &SessionHandler{auth: authService}
}

// StudentLogin handles POST /stu/login.
func (h *SessionHandler) StudentLogin(c *fiber.Ctx) error {
	return h.login(c, domain.UserTypeStudent)
}

// StaffLogin handles POST /sta/login.
func (h *SessionHandler) StaffLogin(c *fiber.Ctx) error {
	return h.login(c, domain.UserTypeStaff)
}

func (h *SessionHandler) login(c *fiber.Ctx, userType domain.UserType) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || req.Password == "" {
		return apperrors.NewValidationError("userId and password required", nil)
	}

	res, err := h.auth.Login(c.UserContext(), userType, req.UserID, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.Success("Login successful", dto.LoginResponse{
		ID:       res.Account.ID,
		UserID:   res.Account.UserID,
		UserType: userType,
		Token:    res.Token,
	}))
}

// Logout handles POST /logout.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewValidationError("caller identity missing", nil)
	}
	if err := h.auth.Logout(c.UserContext(), principal.Token); err != nil {
		return err
	}
	return c.JSON(dto.Success("Logged out", nil))
}
