package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/timebank/internal/domain"
	apperrors "github.com/spec-kit/timebank/pkg/util/errorutil"
)

// RequireStudent ensures a student is authenticated.
func RequireStudent() fiber.Handler {
	return requireType(domain.UserTypeStudent, "student account required")
}

// RequireStaff ensures a staff member is authenticated.
func RequireStaff() fiber.Handler {
	return requireType(domain.UserTypeStaff, "staff account required")
}

// RequireAnyRole ensures caller is authenticated (student or staff).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewAuthenticationRequired()
		}
		return c.Next()
	}
}

func requireType(userType domain.UserType, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewAuthenticationRequired()
		}
		if principal.UserType != userType {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
