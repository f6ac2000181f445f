package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"backend_fleetmaint/config"
	"backend_fleetmaint/database"
	"backend_fleetmaint/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware проверяет аутентификацию пользователя по JWT
type AuthMiddleware struct {
	Secret string
	Issuer string
}

// NewAuthMiddleware создает новый экземпляр AuthMiddleware
func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	}
}

// Claims содержит полезную нагрузку JWT токена
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken выпускает JWT токен для пользователя
func (am *AuthMiddleware) GenerateToken(user *models.User, expiresIn time.Duration) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    am.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(am.Secret))
}

// RequireAuth middleware для проверки аутентификации
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Получаем токен из заголовка
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			authHeader = c.GetHeader("authorization")
		}

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Authorization header is required",
			})
			c.Abort()
			return
		}

		// Извлекаем токен из заголовка
		var token string
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if strings.HasPrefix(authHeader, "Token ") {
			token = strings.TrimPrefix(authHeader, "Token ")
		} else {
			token = authHeader
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid authorization format",
			})
			c.Abort()
			return
		}

		// Проверяем токен и загружаем пользователя
		user, err := am.validateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid or expired token: " + err.Error(),
			})
			c.Abort()
			return
		}

		// Сохраняем пользователя и его права в контексте.
		// Права разворачиваются из роли один раз на запрос.
		c.Set("user", user)
		c.Set("capabilities", user.Capabilities())

		c.Next()
	}
}

// validateToken проверяет JWT и загружает пользователя из БД
func (am *AuthMiddleware) validateToken(tokenString string) (*models.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return []byte(am.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("токен недействителен")
	}

	var user models.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		return nil, fmt.Errorf("пользователь не найден: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("учетная запись отключена")
	}

	return &user, nil
}

// RequireSupervisor пропускает только пользователей с руководящими правами
func (am *AuthMiddleware) RequireSupervisor() gin.HandlerFunc {
	return func(c *gin.Context) {
		caps := GetCapabilities(c)
		if !caps.CanSupervise {
			c.JSON(http.StatusForbidden, gin.H{
				"status": "error",
				"error":  "Недостаточно прав для выполнения операции",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCurrentUser возвращает текущего пользователя из контекста
func GetCurrentUser(c *gin.Context) *models.User {
	if user, exists := c.Get("user"); exists {
		if u, ok := user.(*models.User); ok {
			return u
		}
	}
	return nil
}

// GetCapabilities возвращает права текущего пользователя из контекста
func GetCapabilities(c *gin.Context) models.Capabilities {
	if caps, exists := c.Get("capabilities"); exists {
		if cp, ok := caps.(models.Capabilities); ok {
			return cp
		}
	}
	return models.Capabilities{}
}
