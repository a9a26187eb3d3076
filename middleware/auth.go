package middleware

import (
	"context"
	"strings"
	"time"

	"classtrack_go/config"
	"classtrack_go/database"
	"classtrack_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const revokedKeyPrefix = "token:revoked:"

// Claims is the JWT payload. The registered ID (jti) is a uuid so a
// single token can be revoked without touching the others a user holds.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 JWT for the user with the configured
// lifetime.
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.AppConfig.JWTExpiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.AppConfig.JWTSecret))
}

// BlacklistToken revokes the token until its natural expiry. Without
// Redis this is a no-op and logout only clears the client side.
func BlacklistToken(claims *Claims) {
	client := database.GetRedisClient()
	if client == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		client.Set(context.Background(), revokedKeyPrefix+claims.ID, "1", ttl)
	}
}

func isTokenRevoked(claims *Claims) bool {
	client := database.GetRedisClient()
	if client == nil || claims.ID == "" {
		return false
	}
	n, err := client.Exists(context.Background(), revokedKeyPrefix+claims.ID).Result()
	return err == nil && n > 0
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return token
}

// JWTMiddleware authenticates the request: signature, revocation, and an
// active account check. The user and claims land in Locals for handlers.
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return unauthorized(c, "Missing or malformed authorization header")
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
			return []byte(config.AppConfig.JWTSecret), nil
		})
		if err != nil {
			return unauthorized(c, "Invalid token")
		}
		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid {
			return unauthorized(c, "Invalid token claims")
		}
		if isTokenRevoked(claims) {
			return unauthorized(c, "Token has been revoked")
		}

		// A deactivated account invalidates otherwise-valid tokens.
		var user models.User
		if err := database.DB.Where("id = ? AND status = ?", claims.UserID, "active").First(&user).Error; err != nil {
			return unauthorized(c, "User not found or inactive")
		}

		c.Locals("user", &user)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// RequireRole allows only the listed roles past.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*Claims)
		if !ok {
			return unauthorized(c, "Missing user claims")
		}
		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}

func RequireAdmin() fiber.Handler { return RequireRole("admin") }

func RequireTeacherOrAbove() fiber.Handler { return RequireRole("teacher", "admin") }

// GetCurrentUser returns the authenticated user placed by JWTMiddleware.
func GetCurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User not found in context")
	}
	return user, nil
}

// GetCurrentClaims returns the parsed JWT claims for the request.
func GetCurrentClaims(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals("claims").(*Claims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Claims not found in context")
	}
	return claims, nil
}
