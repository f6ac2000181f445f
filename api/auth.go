package api

import (
	"log"
	"time"

	"backend_fleetmaint/config"
	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login аутентифицирует пользователя и выдает JWT токен
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Укажите имя пользователя и пароль"})
		return
	}

	var user models.User
	err := database.GetDB().Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logAuthOperation(req.Username, "login", false, "пользователь не найден")
			c.JSON(401, gin.H{"status": "error", "error": "Неверное имя пользователя или пароль"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка аутентификации: " + err.Error()})
		}
		return
	}

	if !user.IsActive {
		logAuthOperation(req.Username, "login", false, "учетная запись отключена")
		c.JSON(401, gin.H{"status": "error", "error": "Учетная запись отключена"})
		return
	}

	if !user.CheckPassword(req.Password) {
		logAuthOperation(req.Username, "login", false, "неверный пароль")
		c.JSON(401, gin.H{"status": "error", "error": "Неверное имя пользователя или пароль"})
		return
	}

	cfg := config.GetConfig()
	am := middleware.NewAuthMiddleware(cfg)
	token, err := am.GenerateToken(&user, cfg.JWT.ExpiresIn)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Не удалось выпустить токен: " + err.Error()})
		return
	}

	// Фиксируем время входа
	now := time.Now()
	database.GetDB().Model(&user).Update("last_login", now)

	logAuthOperation(req.Username, "login", true, "")
	c.JSON(200, gin.H{
		"status": "success",
		"data": gin.H{
			"token":      token,
			"expires_in": int(cfg.JWT.ExpiresIn.Seconds()),
			"user":       user,
		},
	})
}

// GetCurrentUserInfo возвращает текущего пользователя и его права
func GetCurrentUserInfo(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		c.JSON(401, gin.H{"status": "error", "error": "Пользователь не аутентифицирован"})
		return
	}

	c.JSON(200, gin.H{
		"status": "success",
		"data": gin.H{
			"user":         user,
			"capabilities": middleware.GetCapabilities(c),
		},
	})
}

// logAuthOperation логирует операции аутентификации
func logAuthOperation(username, operation string, success bool, reason string) {
	if success {
		log.Printf("✅ Аутентификация: %s (%s)", username, operation)
	} else {
		log.Printf("❌ Аутентификация отклонена: %s (%s) — %s", username, operation, reason)
	}
}
