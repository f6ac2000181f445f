package api

import (
	"time"

	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OperationRequest представляет запрос на создание или изменение операции
type OperationRequest struct {
	ProjectName string `json:"project_name" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"` // формат 2006-01-02
	EndDate     string `json:"end_date" binding:"required"`
	AssetID     uint   `json:"asset_id" binding:"required"`
}

// findConflictingOperation ищет операцию актива, пересекающуюся с интервалом
// [start, end]. excludeID исключает саму операцию при обновлении.
func findConflictingOperation(assetID uint, start, end time.Time, excludeID uint) (*models.Operation, error) {
	query := database.GetDB().
		Where("asset_id = ?", assetID).
		Where("end_date >= ? AND start_date <= ?", models.TruncateToDay(start), models.TruncateToDay(end))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var conflict models.Operation
	err := query.First(&conflict).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &conflict, nil
}

// GetOperations получает список операций
func GetOperations(c *gin.Context) {
	page, limit, offset := paginationParams(c)

	query := database.GetDB().Model(&models.Operation{}).
		Joins("JOIN assets ON assets.id = operations.asset_id")
	query = applyAssetAreaScope(query, middleware.GetCapabilities(c), "assets.area")

	if assetID := c.Query("asset_id"); assetID != "" {
		query = query.Where("operations.asset_id = ?", assetID)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("operations.end_date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("operations.start_date <= ?", to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка подсчета операций: " + err.Error()})
		return
	}

	var operations []models.Operation
	if err := query.Preload("Asset").
		Order("operations.start_date").
		Offset(offset).Limit(limit).Find(&operations).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения операций: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(operations, total, page, limit))
}

// GetOperation получает операцию по ID
func GetOperation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var operation models.Operation
	if err := database.GetDB().Preload("Asset").First(&operation, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Операция не найдена"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения операции: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": operation})
}

// CreateOperation планирует занятость актива. Пересечение с существующей
// операцией того же актива отклоняется с указанием конфликтного интервала.
func CreateOperation(c *gin.Context) {
	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные операции: " + err.Error()})
		return
	}

	start, end, ok := parseOperationDates(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	var asset models.Asset
	if err := database.GetDB().First(&asset, req.AssetID).Error; err != nil {
		c.JSON(422, gin.H{"status": "error", "error": "Актив не найден"})
		return
	}

	conflict, err := findConflictingOperation(req.AssetID, start, end, 0)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка проверки занятости: " + err.Error()})
		return
	}
	if conflict != nil {
		c.JSON(409, gin.H{
			"status": "error",
			"error":  "Актив уже занят в указанном интервале",
			"conflict": gin.H{
				"id":           conflict.ID,
				"project_name": conflict.ProjectName,
				"start_date":   conflict.StartDate.Format("2006-01-02"),
				"end_date":     conflict.EndDate.Format("2006-01-02"),
			},
		})
		return
	}

	operation := models.Operation{
		ProjectName: req.ProjectName,
		StartDate:   start,
		EndDate:     end,
		AssetID:     req.AssetID,
	}
	if err := database.GetDB().Create(&operation).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания операции: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": operation})
}

// UpdateOperation изменяет операцию с повторной проверкой занятости
func UpdateOperation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var operation models.Operation
	if err := database.GetDB().First(&operation, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Операция не найдена"})
		return
	}

	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные операции: " + err.Error()})
		return
	}

	start, end, ok := parseOperationDates(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	// Сама операция из проверки исключается
	conflict, err := findConflictingOperation(req.AssetID, start, end, operation.ID)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка проверки занятости: " + err.Error()})
		return
	}
	if conflict != nil {
		c.JSON(409, gin.H{
			"status": "error",
			"error":  "Актив уже занят в указанном интервале",
			"conflict": gin.H{
				"id":           conflict.ID,
				"project_name": conflict.ProjectName,
				"start_date":   conflict.StartDate.Format("2006-01-02"),
				"end_date":     conflict.EndDate.Format("2006-01-02"),
			},
		})
		return
	}

	operation.ProjectName = req.ProjectName
	operation.StartDate = start
	operation.EndDate = end
	operation.AssetID = req.AssetID

	if err := database.GetDB().Save(&operation).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления операции: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": operation})
}

// DeleteOperation удаляет операцию (мягкое удаление)
func DeleteOperation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var operation models.Operation
	if err := database.GetDB().First(&operation, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Операция не найдена"})
		return
	}

	if err := database.GetDB().Delete(&operation).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления операции: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Операция удалена"})
}

// parseOperationDates разбирает и проверяет интервал операции
func parseOperationDates(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректная дата начала, ожидается формат ГГГГ-ММ-ДД"})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректная дата окончания, ожидается формат ГГГГ-ММ-ДД"})
		return time.Time{}, time.Time{}, false
	}
	start = models.TruncateToDay(start)
	end = models.TruncateToDay(end)
	if end.Before(start) {
		c.JSON(422, gin.H{"status": "error", "error": "Дата окончания раньше даты начала"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
