package api

import (
	"strconv"
	"time"

	"backend_fleetmaint/database"
	"backend_fleetmaint/middleware"
	"backend_fleetmaint/models"
	"backend_fleetmaint/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetDashboard возвращает сводные показатели за месяц: наряды по видам ТО,
// долю завершенных, загруженные активы, распределение маршрутов по статусам
// и число открытых отказов. Результат кэшируется в Redis на 5 минут.
func GetDashboard(c *gin.Context) {
	now := time.Now()
	month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if month < 1 || month > 12 {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректный месяц"})
		return
	}

	caps := middleware.GetCapabilities(c)
	area := c.Query("area")
	if caps.RestrictedArea != "" {
		area = caps.RestrictedArea
	}

	cache := services.GetCacheService()
	if cache != nil {
		var cached map[string]interface{}
		if err := cache.GetCachedDashboard(month, year, area, &cached); err == nil && cached != nil {
			c.JSON(200, gin.H{"status": "success", "data": cached, "cached": true})
			return
		}
	}

	data, err := buildDashboard(month, year, area, caps)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка расчета сводки: " + err.Error()})
		return
	}

	if cache != nil {
		_ = cache.CacheDashboard(month, year, area, data)
	}

	c.JSON(200, gin.H{"status": "success", "data": data, "cached": false})
}

// buildDashboard собирает показатели месяца из БД
func buildDashboard(month, year int, area string, caps models.Capabilities) (map[string]interface{}, error) {
	db := database.GetDB()

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	ordersQuery := func() *gorm.DB {
		q := db.Model(&models.WorkOrder{}).
			Joins("JOIN systems ON systems.id = work_orders.system_id").
			Joins("JOIN assets ON assets.id = systems.asset_id").
			Where("work_orders.created_at >= ? AND work_orders.created_at < ?", monthStart, monthEnd)
		q = applyAssetAreaScope(q, caps, "assets.area")
		if area != "" {
			q = q.Where("assets.area = ?", area)
		}
		return q
	}

	// Наряды месяца по видам ТО
	ordersByType := map[string]int64{}
	for _, mtype := range []string{
		models.MaintenanceTypePreventive,
		models.MaintenanceTypeCorrective,
		models.MaintenanceTypeModificative,
	} {
		var count int64
		if err := ordersQuery().Where("work_orders.maintenance_type = ?", mtype).Count(&count).Error; err != nil {
			return nil, err
		}
		ordersByType[mtype] = count
	}

	var totalOrders, finishedOrders int64
	if err := ordersQuery().Count(&totalOrders).Error; err != nil {
		return nil, err
	}
	if err := ordersQuery().Where("work_orders.state = ?", models.WorkOrderStateFinished).
		Count(&finishedOrders).Error; err != nil {
		return nil, err
	}

	finishedRatio := 0.0
	if totalOrders > 0 {
		finishedRatio = float64(finishedOrders) / float64(totalOrders)
	}

	// Пять активов с наибольшим числом нарядов за месяц
	type assetLoad struct {
		AssetID   uint   `json:"asset_id"`
		AssetName string `json:"asset_name"`
		Orders    int64  `json:"orders"`
	}
	var topAssets []assetLoad
	if err := ordersQuery().
		Select("assets.id AS asset_id, assets.name AS asset_name, COUNT(work_orders.id) AS orders").
		Group("assets.id, assets.name").
		Order("orders DESC").
		Limit(5).
		Scan(&topAssets).Error; err != nil {
		return nil, err
	}

	// Распределение маршрутов по вычисленным статусам
	routeSummary, err := services.NewRouteService(db).StatusSummary(services.RouteFilter{
		Area:        area,
		ExcludeArea: caps.ExcludedArea,
	})
	if err != nil {
		return nil, err
	}

	// Открытые отчеты об отказах
	var openFailures int64
	if err := db.Model(&models.FailureReport{}).
		Where("closed = ?", false).
		Count(&openFailures).Error; err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"month":           month,
		"year":            year,
		"area":            area,
		"orders_by_type":  ordersByType,
		"orders_total":    totalOrders,
		"orders_finished": finishedOrders,
		"finished_ratio":  finishedRatio,
		"top_assets":      topAssets,
		"route_statuses":  routeSummary,
		"open_failures":   openFailures,
	}, nil
}
