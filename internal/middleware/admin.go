package middleware

import (
	"crypto/subtle"
	"slices"
	"strings"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const RoleAdmin = "admin"

// AdminRequired runs after JWTProtected. It admits the X-Admin-Token
// holder, users listed in ADMIN_EMAILS or ADMIN_USER_IDS, and users whose
// stored role is admin.
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(strings.ToLower(cfg.AdminEmails))
	adminUserIDs := parseCSV(cfg.AdminUserIDs)
	adminToken := []byte(cfg.AdminToken)

	return func(c *fiber.Ctx) error {
		if len(adminToken) > 0 && subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), adminToken) == 1 {
			return c.Next()
		}

		userID, err := GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var email string
		if token, ok := c.Locals("user").(*jwt.Token); ok {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				email, _ = claims["email"].(string)
			}
		}
		if slices.Contains(adminEmails, strings.ToLower(email)) || slices.Contains(adminUserIDs, userID.String()) {
			return c.Next()
		}

		var role string
		if err := db.Model(&models.User{}).Select("role").Where("id = ?", userID).Scan(&role).Error; err == nil && role == RoleAdmin {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
