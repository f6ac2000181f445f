package api

import (
	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetSystems получает список систем с фильтрацией по активу
func GetSystems(c *gin.Context) {
	page, limit, offset := paginationParams(c)
	search := c.Query("search")
	state := c.Query("state")

	query := database.GetDB().Model(&models.System{}).
		Joins("JOIN assets ON assets.id = systems.asset_id")
	query = applyAssetAreaScope(query, middleware.GetCapabilities(c), "assets.area")

	if assetID := c.Query("asset_id"); assetID != "" {
		query = query.Where("systems.asset_id = ?", assetID)
	}
	if state != "" {
		query = query.Where("systems.state = ?", state)
	}
	if search != "" {
		query = query.Where("systems.name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка подсчета систем: " + err.Error()})
		return
	}

	var systems []models.System
	if err := query.Preload("Asset").
		Order("systems.group_code, systems.name").
		Offset(offset).Limit(limit).Find(&systems).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения систем: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(systems, total, page, limit))
}

// GetSystem получает систему с оборудованием и маршрутами
func GetSystem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var system models.System
	err := database.GetDB().Preload("Asset").
		Preload("Equipment").
		Preload("Routes").
		First(&system, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Система не найдена"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения системы: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": system})
}

// CreateSystem создает новую систему в составе актива
func CreateSystem(c *gin.Context) {
	var system models.System
	if err := c.ShouldBindJSON(&system); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные системы: " + err.Error()})
		return
	}

	if system.Name == "" || system.AssetID == 0 {
		c.JSON(422, gin.H{"status": "error", "error": "Название и актив системы обязательны"})
		return
	}
	if system.State != "" && !models.IsValidSystemState(system.State) {
		c.JSON(422, gin.H{"status": "error", "error": "Неизвестное состояние системы: " + system.State})
		return
	}

	var asset models.Asset
	if err := database.GetDB().First(&asset, system.AssetID).Error; err != nil {
		c.JSON(422, gin.H{"status": "error", "error": "Актив не найден"})
		return
	}

	if err := database.GetDB().Create(&system).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания системы: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": system})
}

// UpdateSystem обновляет данные системы
func UpdateSystem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var system models.System
	if err := database.GetDB().First(&system, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Система не найдена"})
		return
	}

	var input struct {
		Name      *string `json:"name"`
		GroupCode *int    `json:"group_code"`
		Location  *string `json:"location"`
		State     *string `json:"state"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные: " + err.Error()})
		return
	}

	if input.Name != nil {
		system.Name = *input.Name
	}
	if input.GroupCode != nil {
		system.GroupCode = *input.GroupCode
	}
	if input.Location != nil {
		system.Location = *input.Location
	}
	if input.State != nil {
		if !models.IsValidSystemState(*input.State) {
			c.JSON(422, gin.H{"status": "error", "error": "Неизвестное состояние системы: " + *input.State})
			return
		}
		system.State = *input.State
	}

	if err := database.GetDB().Save(&system).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления системы: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": system})
}

// DeleteSystem удаляет систему (мягкое удаление)
func DeleteSystem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var system models.System
	if err := database.GetDB().First(&system, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Система не найдена"})
		return
	}

	if err := database.GetDB().Delete(&system).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления системы: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Система удалена"})
}
