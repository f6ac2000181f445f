package api

import (
	"backend_fleetmaint/services"

	"github.com/gin-gonic/gin"
)

// GetNotificationLogs возвращает журнал отправленных уведомлений
func GetNotificationLogs(c *gin.Context) {
	ns := services.GetNotificationService()
	if ns == nil {
		c.JSON(503, gin.H{"status": "error", "error": "Сервис уведомлений не инициализирован"})
		return
	}

	page, limit, offset := paginationParams(c)

	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if channel := c.Query("channel"); channel != "" {
		filters["channel"] = channel
	}
	if notificationType := c.Query("type"); notificationType != "" {
		filters["type"] = notificationType
	}

	logs, total, err := ns.GetNotificationLogs(limit, offset, filters)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения журнала уведомлений: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(logs, total, page, limit))
}

// GetNotificationStatistics возвращает статистику уведомлений
func GetNotificationStatistics(c *gin.Context) {
	ns := services.GetNotificationService()
	if ns == nil {
		c.JSON(503, gin.H{"status": "error", "error": "Сервис уведомлений не инициализирован"})
		return
	}

	stats, err := ns.GetNotificationStatistics()
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка расчета статистики: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": stats})
}
