package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/kconnect-service/pkg/util"
)

// Gate attaches the caller's Principal to the request context when a valid
// bearer token is present. It never rejects a request: missing or bad tokens
// leave the request anonymous and the Policy decides.
type Gate struct {
	tokens *TokenManager
	logger *zap.Logger
	now    func() time.Time
}

// NewGate constructs the authentication gate.
func NewGate(tokens *TokenManager, logger *zap.Logger) *Gate {
	return &Gate{tokens: tokens, logger: logger, now: time.Now}
}

// Handle annotates the request context and always continues the chain.
func (g *Gate) Handle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if _, ok := PrincipalFromContext(ctx); ok {
		return c.Next()
	}

	token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.Next()
	}

	claims, err := g.tokens.Verify(token, g.now())
	if err != nil {
		g.logger.Debug("bearer token rejected",
			zap.String("reason", string(ReasonOf(err))),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()))
		return c.Next()
	}

	c.SetUserContext(WithPrincipal(ctx, ResolvePrincipal(claims)))
	return c.Next()
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Authorize enforces the static policy before any handler runs.
func Authorize(policy *Policy, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var principal *Principal
		if p, ok := PrincipalFromContext(c.UserContext()); ok {
			principal = &p
		}

		err := policy.Check(c.Method(), c.Path(), principal)
		if err == nil {
			return c.Next()
		}

		fields := []zap.Field{
			zap.String("code", DenialCode(err)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		}
		if principal != nil {
			fields = append(fields, zap.String("subject", principal.Email), zap.String("role", string(principal.Role)))
		}
		logger.Info("access denied", fields...)
		return AsDomainError(err)
	}
}

// AsDomainError converts an access denial into the generic transport error.
// Errors that are not denials are returned unchanged.
func AsDomainError(err error) error {
	switch DenialCode(err) {
	case "UNAUTHENTICATED", "TOKEN_INVALID":
		return apperrors.NewUnauthorizedFor(err)
	case "":
		return err
	default:
		return apperrors.NewForbiddenFor(err)
	}
}
