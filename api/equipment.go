package api

import (
	"backend_fleetmaint/database"
	"backend_fleetmaint/models"
	"backend_fleetmaint/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetEquipmentList получает список оборудования
func GetEquipmentList(c *gin.Context) {
	page, limit, offset := paginationParams(c)
	search := c.Query("search")
	equipmentType := c.Query("type")

	query := database.GetDB().Model(&models.Equipment{})

	if systemID := c.Query("system_id"); systemID != "" {
		query = query.Where("system_id = ?", systemID)
	}
	if equipmentType != "" {
		query = query.Where("type = ?", equipmentType)
	}
	if search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ? OR serial_number ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка подсчета оборудования: " + err.Error()})
		return
	}

	var equipment []models.Equipment
	if err := query.Preload("System.Asset").Order("code").
		Offset(offset).Limit(limit).Find(&equipment).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения оборудования: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(equipment, total, page, limit))
}

// GetEquipment получает единицу оборудования по ID
func GetEquipment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var equipment models.Equipment
	if err := database.GetDB().Preload("System.Asset").First(&equipment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Оборудование не найдено"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения оборудования: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": equipment})
}

// CreateEquipment создает единицу оборудования
func CreateEquipment(c *gin.Context) {
	var equipment models.Equipment
	if err := c.ShouldBindJSON(&equipment); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные оборудования: " + err.Error()})
		return
	}

	if equipment.Code == "" || equipment.Name == "" {
		c.JSON(422, gin.H{"status": "error", "error": "Код и название оборудования обязательны"})
		return
	}
	if equipment.Type == "" {
		equipment.Type = models.EquipmentTypeNonRotating
	}
	if equipment.Type != models.EquipmentTypeRotating && equipment.Type != models.EquipmentTypeNonRotating {
		c.JSON(422, gin.H{"status": "error", "error": "Неизвестный тип оборудования: " + equipment.Type})
		return
	}

	// Счетчик стартует с начальной наработки, журнал пуст
	equipment.Horometer = equipment.InitialHours
	equipment.AvgDailyHours = 0

	if err := database.GetDB().Create(&equipment).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания оборудования: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": equipment})
}

// UpdateEquipment обновляет данные оборудования
func UpdateEquipment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var equipment models.Equipment
	if err := database.GetDB().First(&equipment, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Оборудование не найдено"})
		return
	}

	var input struct {
		Code          *string `json:"code"`
		Name          *string `json:"name"`
		Model         *string `json:"model"`
		SerialNumber  *string `json:"serial_number"`
		Brand         *string `json:"brand"`
		Manufacturer  *string `json:"manufacturer"`
		Features      *string `json:"features"`
		Type          *string `json:"type"`
		ImageURL      *string `json:"image_url"`
		ManualURL     *string `json:"manual_url"`
		InitialHours  *int    `json:"initial_hours"`
		SystemID      *uint   `json:"system_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные: " + err.Error()})
		return
	}

	if input.Code != nil {
		equipment.Code = *input.Code
	}
	if input.Name != nil {
		equipment.Name = *input.Name
	}
	if input.Model != nil {
		equipment.Model = *input.Model
	}
	if input.SerialNumber != nil {
		equipment.SerialNumber = *input.SerialNumber
	}
	if input.Brand != nil {
		equipment.Brand = *input.Brand
	}
	if input.Manufacturer != nil {
		equipment.Manufacturer = *input.Manufacturer
	}
	if input.Features != nil {
		equipment.Features = *input.Features
	}
	if input.Type != nil {
		if *input.Type != models.EquipmentTypeRotating && *input.Type != models.EquipmentTypeNonRotating {
			c.JSON(422, gin.H{"status": "error", "error": "Неизвестный тип оборудования: " + *input.Type})
			return
		}
		equipment.Type = *input.Type
	}
	if input.ImageURL != nil {
		equipment.ImageURL = *input.ImageURL
	}
	if input.ManualURL != nil {
		equipment.ManualURL = *input.ManualURL
	}
	if input.SystemID != nil {
		equipment.SystemID = input.SystemID
	}

	initialChanged := input.InitialHours != nil && *input.InitialHours != equipment.InitialHours
	if initialChanged {
		equipment.InitialHours = *input.InitialHours
	}

	if err := database.GetDB().Save(&equipment).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления оборудования: " + err.Error()})
		return
	}

	// Изменение начальной наработки смещает счетчик
	if initialChanged {
		if err := services.NewUsageService(database.GetDB()).RecalculateEquipmentUsage(equipment.ID); err != nil {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка пересчета наработки: " + err.Error()})
			return
		}
		database.GetDB().First(&equipment, equipment.ID)
	}

	c.JSON(200, gin.H{"status": "success", "data": equipment})
}

// DeleteEquipment удаляет оборудование (мягкое удаление)
func DeleteEquipment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var equipment models.Equipment
	if err := database.GetDB().First(&equipment, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Оборудование не найдено"})
		return
	}

	if err := database.GetDB().Delete(&equipment).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления оборудования: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Оборудование удалено"})
}
