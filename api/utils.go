package api

import (
	"strconv"

	"backend_fleetmaint/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// parseIDParam извлекает числовой ID из параметра пути.
// При ошибке пишет ответ 400 и возвращает false.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректный ID"})
		return 0, false
	}
	return uint(id), true
}

// paginationParams извлекает параметры пагинации из запроса
func paginationParams(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return page, limit, (page - 1) * limit
}

// paginatedResponse формирует стандартный конверт списка с пагинацией
func paginatedResponse(items interface{}, total int64, page, limit int) gin.H {
	return gin.H{
		"status": "success",
		"data": gin.H{
			"items":       items,
			"total":       total,
			"page":        page,
			"limit":       limit,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	}
}

// applyAssetAreaScope ограничивает запрос зонами, доступными пользователю.
// areaColumn — полное имя колонки зоны (например "assets.area").
func applyAssetAreaScope(query *gorm.DB, caps models.Capabilities, areaColumn string) *gorm.DB {
	if caps.RestrictedArea != "" {
		return query.Where(areaColumn+" = ?", caps.RestrictedArea)
	}
	if caps.ExcludedArea != "" {
		return query.Where(areaColumn+" <> ?", caps.ExcludedArea)
	}
	return query
}
