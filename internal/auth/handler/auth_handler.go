package handler

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/dto"
	"github.com/YmidOrtega/Clinica-sub000/internal/auth/service"
	autherror "github.com/YmidOrtega/Clinica-sub000/internal/errors"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService  *service.AuthService
	tokenService service.TokenGenerator
}

func NewAuthHandler(authService *service.AuthService, tokenService service.TokenGenerator) *AuthHandler {
	return &AuthHandler{authService: authService, tokenService: tokenService}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokenPair, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokenPair)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.authService.Refresh(c.UserContext(), input)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

// Logout revokes the presented access token; with ?all=true it also kills
// every refresh token the account owns.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	ip := c.IP()
	userAgent := string(c.Request().Header.UserAgent())

	var err error
	if c.Query("all") == "true" {
		err = h.authService.LogoutAllDevices(c.UserContext(), token, ip, userAgent)
	} else {
		err = h.authService.Logout(c.UserContext(), token, ip, userAgent)
	}
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) PublicKey(c *fiber.Ctx) error {
	der, err := h.tokenService.PublicKeyDER()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	return c.Status(fiber.StatusOK).JSON(dto.PublicKeyResponse{
		PublicKey: base64.StdEncoding.EncodeToString(der),
		Algorithm: "RS256",
		KeyType:   "RSA",
	})
}

func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	result, err := h.authService.Validate(c.UserContext(), token)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	if err := h.authService.ChangePassword(c.UserContext(), token, input); err != nil {
		return writeAuthError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) GetUserSessions(c *fiber.Ctx) error {
	sessions, err := h.authService.GetUserActiveSessions(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}

func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	if err := h.authService.ForceLogout(c.UserContext(), c.Params("id")); err != nil {
		return writeAuthError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RequireRole guards admin routes with the role claim of a valid access
// token.
func (h *AuthHandler) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		claims, err := h.tokenService.VerifyAccessToken(c.UserContext(), token)
		if err != nil {
			return writeAuthError(c, err)
		}

		if claims.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	return strings.TrimSpace(header[len(prefix):]), true
}

// writeAuthError maps the service error taxonomy onto stable external codes
// without leaking storage details.
func writeAuthError(c *fiber.Ctx, err error) error {
	var lockedErr *autherror.AccountLockedError
	if errors.As(err, &lockedErr) {
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"error":             "account locked",
			"code":              "ACCOUNT_LOCKED",
			"remaining_minutes": lockedErr.RemainingMinutes,
		})
	}

	var tokenErr *autherror.InvalidTokenError
	if errors.As(err, &tokenErr) {
		if tokenErr.Reason == autherror.ReasonStoreUnavailable {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "revocation store unavailable",
				"code":  "STORE_UNAVAILABLE",
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":  "invalid token",
			"code":   "INVALID_TOKEN",
			"reason": string(tokenErr.Reason),
		})
	}

	switch {
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid credentials", "code": "INVALID_CREDENTIALS",
		})
	case errors.Is(err, autherror.ErrPasswordExpired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "password expired", "code": "PASSWORD_EXPIRED",
		})
	case errors.Is(err, autherror.ErrPasswordChangeRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "password change required", "code": "PASSWORD_CHANGE_REQUIRED",
		})
	case errors.Is(err, autherror.ErrTokenNotRecognized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "refresh token not recognized", "code": "TOKEN_NOT_RECOGNIZED",
		})
	case errors.Is(err, autherror.ErrAccountNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "account not found", "code": "ACCOUNT_NOT_FOUND",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error", "code": "INTERNAL",
		})
	}
}
