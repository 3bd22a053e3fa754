package api

import (
	"strings"

	domain "github.com/Rishi-0007/tm-assignment/domain/user"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"

	bearerScheme = "Bearer"
)

// TokenVerifier checks access tokens. *auth.TokenService implements it.
type TokenVerifier interface {
	VerifyAccess(token string) (*domain.Claims, error)
}

// AuthMiddleware admits requests carrying a valid access token.
// A missing or malformed Authorization header is answered with 401; a token
// that fails verification, including an expired one, with 403.
func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthenticated",
				Message: "Access token required",
			})
		}

		// The scheme is case-insensitive (RFC 7235).
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, bearerScheme) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthenticated",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token = strings.TrimSpace(token)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthenticated",
				Message: "Access token required",
			})
		}

		claims, err := verifier.VerifyAccess(token)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Error:   "forbidden",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, claims)

		return c.Next()
	}
}

// claimsFrom returns the identity stored by AuthMiddleware.
func claimsFrom(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	return claims, ok && claims != nil
}
