package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/timebank/internal/api/dto"
	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/service"
	"github.com/spec-kit/timebank/internal/worker"
	apperrors "github.com/spec-kit/timebank/pkg/util/errorutil"
)

// RecalculationTrigger runs an immediate recalculation.
type RecalculationTrigger interface {
	TriggerNow(ctx context.Context) (service.RecalcResult, error)
}

// StaffHandler exposes staff endpoints.
type StaffHandler struct {
	points *service.PointsService
	recalc RecalculationTrigger
}

// NewStaffHandler constructs handler.
func NewStaffHandler(points *service.PointsService, recalc RecalculationTrigger) *StaffHandler {
	return &StaffHandler{points: points, recalc: recalc}
}

// ValidatePointsRequest handles POST /sta/validatePointsRequest.
func (h *StaffHandler) ValidatePointsRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.UserID == "" {
		return apperrors.NewValidationError("staff identity missing", nil)
	}

	var req dto.ValidatePointsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	event, err := h.points.ValidateRequest(c.UserContext(), principal.UserID, service.ValidateInput{
		RequestID:   req.RequestID,
		PointDiff:   req.PointDiff,
		CreditDiff:  req.CreditDiff,
		Accepted:    req.Accepted,
		ContentHTML: req.ContentHTML,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("Request validated", dto.ValidatePointsResponse{
		EventID: event.ID,
		Status:  event.Type,
	}))
}

// Recalculate handles POST /sta/recalculate.
func (h *StaffHandler) Recalculate(c *fiber.Ctx) error {
	if h.recalc == nil {
		return apperrors.NewInternalError(errors.New("recalculation not configured"))
	}
	res, err := h.recalc.TriggerNow(c.UserContext())
	if err != nil {
		if errors.Is(err, worker.ErrRecalculationRunning) {
			return apperrors.NewConflict("balance recalculation already running")
		}
		return err
	}
	return c.JSON(dto.Success("Balances recalculated", dto.NewRecalculationResponse(res.Students, res.Events, res.Duration)))
}
