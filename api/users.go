package api

import (
	"backend_fleetmaint/database"
	"backend_fleetmaint/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateUserRequest представляет запрос на создание пользователя
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" binding:"required"`
}

// GetUsers получает список пользователей
func GetUsers(c *gin.Context) {
	page, limit, offset := paginationParams(c)
	role := c.Query("role")
	search := c.Query("search")

	query := database.GetDB().Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if search != "" {
		query = query.Where("username ILIKE ? OR email ILIKE ? OR last_name ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка подсчета пользователей: " + err.Error()})
		return
	}

	var users []models.User
	if err := query.Order("username").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения пользователей: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(users, total, page, limit))
}

// GetUser получает одного пользователя по ID
func GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Пользователь не найден"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения пользователя: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": user})
}

// CreateUser создает нового пользователя
func CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные пользователя: " + err.Error()})
		return
	}

	if !models.IsValidRole(req.Role) {
		c.JSON(422, gin.H{"status": "error", "error": "Неизвестная роль: " + req.Role})
		return
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		IsActive:  true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Не удалось захэшировать пароль: " + err.Error()})
		return
	}

	if err := database.GetDB().Create(&user).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания пользователя: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": user})
}

// UpdateUser обновляет данные пользователя
func UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Пользователь не найден"})
		return
	}

	var input struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Role      *string `json:"role"`
		IsActive  *bool   `json:"is_active"`
		Password  *string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные: " + err.Error()})
		return
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Role != nil {
		if !models.IsValidRole(*input.Role) {
			c.JSON(422, gin.H{"status": "error", "error": "Неизвестная роль: " + *input.Role})
			return
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if err := user.SetPassword(*input.Password); err != nil {
			c.JSON(500, gin.H{"status": "error", "error": "Не удалось захэшировать пароль: " + err.Error()})
			return
		}
	}

	if err := database.GetDB().Save(&user).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления пользователя: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": user})
}

// DeleteUser деактивирует пользователя (мягкое удаление)
func DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Пользователь не найден"})
		return
	}

	if err := database.GetDB().Delete(&user).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления пользователя: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Пользователь удален"})
}
