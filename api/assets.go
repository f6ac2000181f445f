package api

import (
	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAssets получает список активов с учетом зон, доступных пользователю
func GetAssets(c *gin.Context) {
	page, limit, offset := paginationParams(c)
	area := c.Query("area")
	search := c.Query("search")
	activeOnly := c.Query("active_only") == "true"

	query := database.GetDB().Model(&models.Asset{})
	query = applyAssetAreaScope(query, middleware.GetCapabilities(c), "assets.area")

	if area != "" {
		query = query.Where("assets.area = ?", area)
	}
	if search != "" {
		query = query.Where("assets.name ILIKE ?", "%"+search+"%")
	}
	if activeOnly {
		query = query.Where("assets.is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка подсчета активов: " + err.Error()})
		return
	}

	var assets []models.Asset
	if err := query.Preload("Supervisor").Order("assets.name").
		Offset(offset).Limit(limit).Find(&assets).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения активов: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(assets, total, page, limit))
}

// GetAsset получает актив со связанными системами
func GetAsset(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	query := database.GetDB().Preload("Supervisor").
		Preload("Systems", func(db *gorm.DB) *gorm.DB {
			return db.Order("systems.group_code, systems.name")
		})
	query = applyAssetAreaScope(query, middleware.GetCapabilities(c), "assets.area")

	var asset models.Asset
	if err := query.First(&asset, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Актив не найден"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения актива: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": asset})
}

// CreateAsset создает новый актив
func CreateAsset(c *gin.Context) {
	var asset models.Asset
	if err := c.ShouldBindJSON(&asset); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные актива: " + err.Error()})
		return
	}

	if asset.Name == "" {
		c.JSON(422, gin.H{"status": "error", "error": "Название актива обязательно"})
		return
	}
	if !models.IsValidAssetArea(asset.Area) {
		c.JSON(422, gin.H{"status": "error", "error": "Неизвестная зона эксплуатации: " + asset.Area})
		return
	}

	asset.IsActive = true
	if err := database.GetDB().Create(&asset).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания актива: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": asset})
}

// UpdateAsset обновляет данные актива
func UpdateAsset(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var asset models.Asset
	if err := database.GetDB().First(&asset, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Актив не найден"})
		return
	}

	var input models.Asset
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные актива: " + err.Error()})
		return
	}

	if input.Area != "" && !models.IsValidAssetArea(input.Area) {
		c.JSON(422, gin.H{"status": "error", "error": "Неизвестная зона эксплуатации: " + input.Area})
		return
	}

	updates := map[string]interface{}{
		"is_active":        input.IsActive,
		"supervisor_id":    input.SupervisorID,
		"flag_state":       input.FlagState,
		"length_overall":   input.LengthOverall,
		"beam":             input.Beam,
		"depth":            input.Depth,
		"max_draft":        input.MaxDraft,
		"deadweight":       input.Deadweight,
		"gross_tonnage":    input.GrossTonnage,
		"net_tonnage":      input.NetTonnage,
		"clear_deck_space": input.ClearDeckSpace,
	}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Area != "" {
		updates["area"] = input.Area
	}

	if err := database.GetDB().Model(&asset).Updates(updates).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления актива: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": asset})
}

// DeleteAsset удаляет актив (мягкое удаление)
func DeleteAsset(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var asset models.Asset
	if err := database.GetDB().First(&asset, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Актив не найден"})
		return
	}

	if err := database.GetDB().Delete(&asset).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления актива: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Актив удален"})
}
