package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/timebank/internal/api/dto"
	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/service"
	apperrors "github.com/spec-kit/timebank/pkg/util/errorutil"
)

// StudentsHandler exposes student endpoints.
type StudentsHandler struct {
	points *service.PointsService
}

// NewStudentsHandler constructs handler.
func NewStudentsHandler(points *service.PointsService) *StudentsHandler {
	return &StudentsHandler{points: points}
}

// UpdatePointsRequest handles POST /stu/updatePointsRequest.
func (h *StudentsHandler) UpdatePointsRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.UserID == "" {
		return apperrors.NewValidationError("student identity missing", nil)
	}

	var req dto.PointsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PointChange == nil {
		return apperrors.NewValidationError("pointChange required", nil)
	}

	event, err := h.points.SubmitRequest(c.UserContext(), principal.UserID, *req.PointChange, req.ContentHTML)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("Request submitted", dto.PointsRequestResponse{EventID: event.ID}))
}

// Details handles GET /stu/details.
func (h *StudentsHandler) Details(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.UserID == "" {
		return apperrors.NewValidationError("student identity missing", nil)
	}

	agg, err := h.points.Details(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("Student details", dto.NewStudentDetailsResponse(agg)))
}
