package api

import (
	"errors"
	"strconv"
	"time"

	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/models"
	"backend_fleetmaint/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// routeFilterFromQuery собирает фильтр списка маршрутов из запроса
// с учетом зон, доступных пользователю
func routeFilterFromQuery(c *gin.Context) services.RouteFilter {
	filter := services.RouteFilter{
		ControlMode: c.Query("control_mode"),
		Status:      c.Query("status"),
	}
	if systemID, err := strconv.Atoi(c.Query("system_id")); err == nil && systemID > 0 {
		filter.SystemID = uint(systemID)
	}
	if assetID, err := strconv.Atoi(c.Query("asset_id")); err == nil && assetID > 0 {
		filter.AssetID = uint(assetID)
	}

	caps := middleware.GetCapabilities(c)
	filter.Area = caps.RestrictedArea
	filter.ExcludeArea = caps.ExcludedArea
	if area := c.Query("area"); area != "" && caps.RestrictedArea == "" {
		filter.Area = area
	}

	return filter
}

// GetRoutes возвращает маршруты обслуживания с вычисленными показателями
func GetRoutes(c *gin.Context) {
	routes, err := services.NewRouteService(database.GetDB()).
		ListWithIndicators(routeFilterFromQuery(c))
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения маршрутов: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"status": "success",
		"data": gin.H{
			"items": routes,
			"total": len(routes),
		},
	})
}

// GetRoute возвращает маршрут с показателями и шаблонными задачами
func GetRoute(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var route models.MaintenanceRoute
	err := database.GetDB().Preload("System.Asset").
		Preload("Equipment").
		Preload("WorkOrder").
		Preload("Tasks", "work_order_id IS NULL").
		First(&route, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Маршрут не найден"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения маршрута: " + err.Error()})
		}
		return
	}

	indicators, err := services.NewRouteService(database.GetDB()).ComputeIndicators(&route)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка расчета показателей маршрута: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"status": "success",
		"data": services.RouteWithIndicators{
			MaintenanceRoute: route,
			Indicators:       indicators,
		},
	})
}

// RouteRequest представляет запрос на создание или изменение маршрута
type RouteRequest struct {
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	ControlMode      string `json:"control_mode" binding:"required"`
	Frequency        int    `json:"frequency" binding:"required"`
	InterventionDate string `json:"intervention_date"` // формат 2006-01-02
	SystemID         uint   `json:"system_id" binding:"required"`
	EquipmentID      *uint  `json:"equipment_id"`
	DependencyID     *uint  `json:"dependency_id"`
}

// CreateRoute создает маршрут обслуживания
func CreateRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные маршрута: " + err.Error()})
		return
	}

	interventionDate := models.TruncateToDay(time.Now())
	if req.InterventionDate != "" {
		parsed, err := time.Parse("2006-01-02", req.InterventionDate)
		if err != nil {
			c.JSON(400, gin.H{"status": "error", "error": "Некорректная дата вмешательства, ожидается формат ГГГГ-ММ-ДД"})
			return
		}
		interventionDate = models.TruncateToDay(parsed)
	}

	route := models.MaintenanceRoute{
		Name:             req.Name,
		Description:      req.Description,
		ControlMode:      req.ControlMode,
		Frequency:        req.Frequency,
		InterventionDate: interventionDate,
		SystemID:         req.SystemID,
		EquipmentID:      req.EquipmentID,
		DependencyID:     req.DependencyID,
	}

	if err := services.NewRouteService(database.GetDB()).ValidateRoute(&route); err != nil {
		c.JSON(422, gin.H{"status": "error", "error": err.Error()})
		return
	}

	var system models.System
	if err := database.GetDB().First(&system, route.SystemID).Error; err != nil {
		c.JSON(422, gin.H{"status": "error", "error": "Система не найдена"})
		return
	}

	if err := database.GetDB().Create(&route).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания маршрута: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": route})
}

// UpdateRoute обновляет маршрут обслуживания
func UpdateRoute(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var route models.MaintenanceRoute
	if err := database.GetDB().First(&route, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Маршрут не найден"})
		return
	}

	var input struct {
		Name             *string `json:"name"`
		Description      *string `json:"description"`
		ControlMode      *string `json:"control_mode"`
		Frequency        *int    `json:"frequency"`
		InterventionDate *string `json:"intervention_date"`
		EquipmentID      *uint   `json:"equipment_id"`
		DependencyID     *uint   `json:"dependency_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные: " + err.Error()})
		return
	}

	if input.Name != nil {
		route.Name = *input.Name
	}
	if input.Description != nil {
		route.Description = *input.Description
	}
	if input.ControlMode != nil {
		route.ControlMode = *input.ControlMode
	}
	if input.Frequency != nil {
		route.Frequency = *input.Frequency
	}
	if input.InterventionDate != nil {
		parsed, err := time.Parse("2006-01-02", *input.InterventionDate)
		if err != nil {
			c.JSON(400, gin.H{"status": "error", "error": "Некорректная дата вмешательства, ожидается формат ГГГГ-ММ-ДД"})
			return
		}
		route.InterventionDate = models.TruncateToDay(parsed)
	}
	if input.EquipmentID != nil {
		route.EquipmentID = input.EquipmentID
	}
	if input.DependencyID != nil {
		route.DependencyID = input.DependencyID
	}

	if err := services.NewRouteService(database.GetDB()).ValidateRoute(&route); err != nil {
		c.JSON(422, gin.H{"status": "error", "error": err.Error()})
		return
	}

	if err := database.GetDB().Save(&route).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления маршрута: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": route})
}

// DeleteRoute удаляет маршрут обслуживания (мягкое удаление)
func DeleteRoute(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var route models.MaintenanceRoute
	if err := database.GetDB().First(&route, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Маршрут не найден"})
		return
	}

	if err := database.GetDB().Delete(&route).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления маршрута: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Маршрут удален"})
}

// GetRoutesSummary возвращает распределение маршрутов по статусам
func GetRoutesSummary(c *gin.Context) {
	summary, err := services.NewRouteService(database.GetDB()).
		StatusSummary(routeFilterFromQuery(c))
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка расчета сводки маршрутов: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": summary})
}

// CreateRouteWorkOrders запускает маршрут в работу: создает наряды для
// маршрута и всей цепочки его зависимостей
func CreateRouteWorkOrders(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	orders, err := newWorkOrderService().CreateFromRoute(id, middleware.GetCurrentUser(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"status": "error", "error": "Маршрут не найден"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания нарядов: " + err.Error()})
		}
		return
	}

	c.JSON(201, gin.H{
		"status": "success",
		"data": gin.H{
			"orders": orders,
			"count":  len(orders),
		},
	})
}
