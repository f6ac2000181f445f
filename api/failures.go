package api

import (
	"errors"
	"log"

	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/models"
	"backend_fleetmaint/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetFailureReports получает список отчетов об отказах
func GetFailureReports(c *gin.Context) {
	page, limit, offset := paginationParams(c)

	query := database.GetDB().Model(&models.FailureReport{})

	if closed := c.Query("closed"); closed != "" {
		query = query.Where("closed = ?", closed == "true")
	}
	if critical := c.Query("critical"); critical != "" {
		query = query.Where("is_critical = ?", critical == "true")
	}
	if equipmentID := c.Query("equipment_id"); equipmentID != "" {
		query = query.Where("equipment_id = ?", equipmentID)
	}
	if assetID := c.Query("asset_id"); assetID != "" {
		query = query.Joins("JOIN equipment ON equipment.id = failure_reports.equipment_id").
			Joins("JOIN systems ON systems.id = equipment.system_id").
			Where("systems.asset_id = ?", assetID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка подсчета отчетов: " + err.Error()})
		return
	}

	var reports []models.FailureReport
	if err := query.Preload("Equipment").Preload("Reporter").
		Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&reports).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения отчетов: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(reports, total, page, limit))
}

// GetFailureReport получает отчет об отказе по ID
func GetFailureReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var report models.FailureReport
	err := database.GetDB().Preload("Equipment.System.Asset").
		Preload("Reporter").
		Preload("RelatedWorkOrder").
		First(&report, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Отчет об отказе не найден"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения отчета: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": report})
}

// CreateFailureReport создает отчет об отказе и уведомляет руководителей
func CreateFailureReport(c *gin.Context) {
	var report models.FailureReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные отчета: " + err.Error()})
		return
	}

	if report.Description == "" || report.EquipmentID == 0 {
		c.JSON(422, gin.H{"status": "error", "error": "Описание и оборудование обязательны"})
		return
	}

	var equipment models.Equipment
	if err := database.GetDB().First(&equipment, report.EquipmentID).Error; err != nil {
		c.JSON(422, gin.H{"status": "error", "error": "Оборудование не найдено"})
		return
	}

	// Отчет всегда привязывается к подавшему
	if user := middleware.GetCurrentUser(c); user != nil {
		report.ReporterID = &user.ID
	}
	report.Closed = false
	report.RelatedWorkOrderID = nil

	if err := database.GetDB().Create(&report).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания отчета: " + err.Error()})
		return
	}

	// Уведомление не блокирует создание отчета
	if ns := services.GetNotificationService(); ns != nil {
		report.Equipment = &equipment
		if err := ns.SendFailureReportCreated(&report); err != nil {
			log.Printf("⚠️  Не удалось разослать уведомление об отказе #%d: %v", report.ID, err)
		}
	}

	c.JSON(201, gin.H{"status": "success", "data": report})
}

// UpdateFailureReport обновляет отчет об отказе
func UpdateFailureReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var report models.FailureReport
	if err := database.GetDB().First(&report, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Отчет об отказе не найден"})
		return
	}

	if report.Closed {
		c.JSON(409, gin.H{"status": "error", "error": "Закрытый отчет нельзя изменять"})
		return
	}

	var input struct {
		Description     *string   `json:"description"`
		ProbableCauses  *string   `json:"probable_causes"`
		SuggestedRepair *string   `json:"suggested_repair"`
		IsCritical      *bool     `json:"is_critical"`
		ImpactAreas     *[]string `json:"impact_areas"`
		EvidenceURL     *string   `json:"evidence_url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные: " + err.Error()})
		return
	}

	if input.Description != nil {
		report.Description = *input.Description
	}
	if input.ProbableCauses != nil {
		report.ProbableCauses = *input.ProbableCauses
	}
	if input.SuggestedRepair != nil {
		report.SuggestedRepair = *input.SuggestedRepair
	}
	if input.IsCritical != nil {
		report.IsCritical = *input.IsCritical
	}
	if input.ImpactAreas != nil {
		report.ImpactAreas = *input.ImpactAreas
	}
	if input.EvidenceURL != nil {
		report.EvidenceURL = *input.EvidenceURL
	}

	if err := database.GetDB().Save(&report).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления отчета: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": report})
}

// CreateFailureWorkOrder создает корректирующий наряд по отчету об отказе.
// По отчету допускается не более одного наряда.
func CreateFailureWorkOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := newWorkOrderService().CreateFromFailureReport(id, middleware.GetCurrentUser(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderAlreadyExists):
			c.JSON(409, gin.H{"status": "error", "error": err.Error()})
		case errors.Is(err, services.ErrEquipmentHasNoSystem):
			c.JSON(422, gin.H{"status": "error", "error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(404, gin.H{"status": "error", "error": "Отчет об отказе не найден"})
		default:
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания наряда: " + err.Error()})
		}
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": order})
}

// CloseFailureReport закрывает отчет об отказе без наряда
func CloseFailureReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caps := middleware.GetCapabilities(c)
	if !caps.CanCloseFailures {
		c.JSON(403, gin.H{"status": "error", "error": "Недостаточно прав для закрытия отчета"})
		return
	}

	var report models.FailureReport
	if err := database.GetDB().First(&report, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Отчет об отказе не найден"})
		return
	}

	if report.Closed {
		c.JSON(409, gin.H{"status": "error", "error": "Отчет уже закрыт"})
		return
	}

	if err := database.GetDB().Model(&report).Update("closed", true).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка закрытия отчета: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Отчет об отказе закрыт"})
}

// DeleteFailureReport удаляет отчет об отказе (мягкое удаление)
func DeleteFailureReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var report models.FailureReport
	if err := database.GetDB().First(&report, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Отчет об отказе не найден"})
		return
	}

	if err := database.GetDB().Delete(&report).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления отчета: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Отчет об отказе удален"})
}
