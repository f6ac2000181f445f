package api

import (
	"errors"
	"fmt"
	"time"

	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/models"
	"backend_fleetmaint/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HourReportRequest представляет запрос на подачу отчета о наработке
type HourReportRequest struct {
	ReportDate string `json:"report_date" binding:"required"` // формат 2006-01-02
	Hours      int    `json:"hours"`
}

// SubmitHourReport регистрирует суточный отчет о наработке оборудования.
// Повторная подача за ту же дату обновляет существующий отчет.
func SubmitHourReport(c *gin.Context) {
	equipmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req HourReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные отчета: " + err.Error()})
		return
	}

	reportDate, err := time.Parse("2006-01-02", req.ReportDate)
	if err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректная дата отчета, ожидается формат ГГГГ-ММ-ДД"})
		return
	}

	var reporterID *uint
	if user := middleware.GetCurrentUser(c); user != nil {
		reporterID = &user.ID
	}

	report, created, err := services.NewUsageService(database.GetDB()).
		SubmitHourReport(equipmentID, reportDate, req.Hours, reporterID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidHours) {
			c.JSON(422, gin.H{"status": "error", "error": err.Error()})
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"status": "error", "error": "Оборудование не найдено"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка регистрации отчета: " + err.Error()})
		}
		return
	}

	status := 200
	if created {
		status = 201
	}
	c.JSON(status, gin.H{"status": "success", "data": report, "created": created})
}

// GetEquipmentLedger возвращает журнал наработки оборудования
func GetEquipmentLedger(c *gin.Context) {
	equipmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	page, limit, offset := paginationParams(c)

	reports, total, err := services.NewUsageService(database.GetDB()).
		GetEquipmentLedger(equipmentID, limit, offset)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения журнала наработки: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(reports, total, page, limit))
}

// UpdateHourReport изменяет часы существующего отчета о наработке
func UpdateHourReport(c *gin.Context) {
	reportID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		Hours int `json:"hours"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные: " + err.Error()})
		return
	}

	var reporterID *uint
	if user := middleware.GetCurrentUser(c); user != nil {
		reporterID = &user.ID
	}

	report, err := services.NewUsageService(database.GetDB()).
		UpdateHourReport(reportID, input.Hours, reporterID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidHours) {
			c.JSON(422, gin.H{"status": "error", "error": err.Error()})
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"status": "error", "error": "Отчет о наработке не найден"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления отчета: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": report})
}

// DeleteHourReport удаляет отчет о наработке
func DeleteHourReport(c *gin.Context) {
	reportID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := services.NewUsageService(database.GetDB()).DeleteHourReport(reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"status": "error", "error": "Отчет о наработке не найден"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления отчета: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Отчет о наработке удален"})
}

// GetAssetLedger возвращает сводный журнал наработки вращающегося
// оборудования актива
func GetAssetLedger(c *gin.Context) {
	assetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var asset models.Asset
	if err := database.GetDB().First(&asset, assetID).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Актив не найден"})
		return
	}

	rows, err := services.NewReportService(database.GetDB()).CollectAssetLedger(assetID)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения журнала наработки: " + err.Error()})
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		items = append(items, gin.H{
			"equipment_code": row.EquipmentCode,
			"equipment_name": row.EquipmentName,
			"report_date":    row.ReportDate.Format("2006-01-02"),
			"hours":          row.Hours,
			"reporter":       row.Reporter,
		})
	}

	c.JSON(200, gin.H{
		"status": "success",
		"data": gin.H{
			"asset": gin.H{"id": asset.ID, "name": asset.Name},
			"items": items,
			"total": len(items),
		},
	})
}

// ExportAssetLedger выгружает журнал наработки актива в XLSX или CSV
func ExportAssetLedger(c *gin.Context) {
	assetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "xlsx")

	var asset models.Asset
	if err := database.GetDB().First(&asset, assetID).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Актив не найден"})
		return
	}

	reportService := services.NewReportService(database.GetDB())
	rows, err := reportService.CollectAssetLedger(assetID)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения журнала наработки: " + err.Error()})
		return
	}

	var data []byte
	var fileName, contentType string

	switch format {
	case "xlsx":
		data, fileName, err = reportService.GenerateAssetLedgerExcel(&asset, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		data, fileName, err = reportService.GenerateAssetLedgerCSV(&asset, rows)
		contentType = "text/csv"
	default:
		c.JSON(400, gin.H{"status": "error", "error": "Неизвестный формат выгрузки: " + format})
		return
	}
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка формирования выгрузки: " + err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	c.Data(200, contentType, data)
}
