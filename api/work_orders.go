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

// newWorkOrderService собирает сервис нарядов с глобальными зависимостями
func newWorkOrderService() *services.WorkOrderService {
	return services.NewWorkOrderService(database.GetDB(),
		services.GetNotificationService(),
		services.NewReportService(database.GetDB()),
		services.GetCacheService())
}

// GetWorkOrders получает список нарядов
func GetWorkOrders(c *gin.Context) {
	page, limit, offset := paginationParams(c)
	state := c.Query("state")
	maintenanceType := c.Query("maintenance_type")

	query := database.GetDB().Model(&models.WorkOrder{}).
		Joins("JOIN systems ON systems.id = work_orders.system_id").
		Joins("JOIN assets ON assets.id = systems.asset_id")
	query = applyAssetAreaScope(query, middleware.GetCapabilities(c), "assets.area")

	if state != "" {
		query = query.Where("work_orders.state = ?", state)
	}
	if maintenanceType != "" {
		query = query.Where("work_orders.maintenance_type = ?", maintenanceType)
	}
	if systemID := c.Query("system_id"); systemID != "" {
		query = query.Where("work_orders.system_id = ?", systemID)
	}
	if assetID := c.Query("asset_id"); assetID != "" {
		query = query.Where("systems.asset_id = ?", assetID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка подсчета нарядов: " + err.Error()})
		return
	}

	var orders []models.WorkOrder
	if err := query.Preload("System.Asset").Preload("Tasks").
		Order("work_orders.created_at DESC").
		Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения нарядов: " + err.Error()})
		return
	}

	c.JSON(200, paginatedResponse(orders, total, page, limit))
}

// GetWorkOrder получает наряд с задачами
func GetWorkOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var order models.WorkOrder
	err := database.GetDB().Preload("System.Asset").
		Preload("Supervisor").
		Preload("Tasks.Responsible").
		First(&order, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Наряд не найден"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения наряда: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{
		"status": "success",
		"data": gin.H{
			"order":              order,
			"all_tasks_finished": order.AllTasksFinished(),
		},
	})
}

// CreateWorkOrder создает наряд вручную (вид ТО по умолчанию — модернизация)
func CreateWorkOrder(c *gin.Context) {
	var order models.WorkOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные наряда: " + err.Error()})
		return
	}

	if order.Description == "" || order.SystemID == 0 {
		c.JSON(422, gin.H{"status": "error", "error": "Описание и система наряда обязательны"})
		return
	}
	if order.State == "" {
		order.State = models.WorkOrderStateOpen
	}
	if !models.IsValidWorkOrderState(order.State) {
		c.JSON(422, gin.H{"status": "error", "error": "Неизвестное состояние наряда: " + order.State})
		return
	}
	if order.MaintenanceType == "" {
		order.MaintenanceType = models.MaintenanceTypeModificative
	}
	if !models.IsValidMaintenanceType(order.MaintenanceType) {
		c.JSON(422, gin.H{"status": "error", "error": "Неизвестный вид ТО: " + order.MaintenanceType})
		return
	}

	// Роли с принудительным самоназначением не выбирают руководителя
	// наряда: переданное клиентом значение игнорируется
	caps := middleware.GetCapabilities(c)
	if user := middleware.GetCurrentUser(c); user != nil {
		if caps.ForceSelfAssign || order.SupervisorID == nil {
			order.SupervisorID = &user.ID
		}
	}

	if err := database.GetDB().Create(&order).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания наряда: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": order})
}

// UpdateWorkOrder обновляет наряд. Для ролей с принудительным
// самоназначением руководитель наряда всегда — текущий пользователь.
func UpdateWorkOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var order models.WorkOrder
	if err := database.GetDB().First(&order, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Наряд не найден"})
		return
	}

	if order.State == models.WorkOrderStateFinished {
		c.JSON(409, gin.H{"status": "error", "error": "Завершенный наряд нельзя изменять"})
		return
	}

	var input struct {
		Description          *string `json:"description"`
		State                *string `json:"state"`
		ContractorReportPath *string `json:"contractor_report_path"`
		SupervisorID         *uint   `json:"supervisor_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные: " + err.Error()})
		return
	}

	if input.Description != nil {
		order.Description = *input.Description
	}
	if input.State != nil {
		// Завершение проходит только через отдельную операцию
		if *input.State == models.WorkOrderStateFinished {
			c.JSON(422, gin.H{"status": "error", "error": "Для завершения наряда используйте операцию finish"})
			return
		}
		if !models.IsValidWorkOrderState(*input.State) {
			c.JSON(422, gin.H{"status": "error", "error": "Неизвестное состояние наряда: " + *input.State})
			return
		}
		order.State = *input.State
	}
	if input.ContractorReportPath != nil {
		order.ContractorReportPath = *input.ContractorReportPath
	}
	if input.SupervisorID != nil {
		order.SupervisorID = input.SupervisorID
	}

	caps := middleware.GetCapabilities(c)
	if caps.ForceSelfAssign {
		if user := middleware.GetCurrentUser(c); user != nil {
			order.SupervisorID = &user.ID
		}
	}

	if err := database.GetDB().Save(&order).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления наряда: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": order})
}

// FinishWorkOrder завершает наряд: сбрасывает цепочки маршрутов, закрывает
// связанный отчет об отказе и отправляет документы руководителю актива.
// Ошибка отправки письма возвращает 500, но изменения уже сохранены.
func FinishWorkOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := newWorkOrderService().Finish(id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderAlreadyClosed):
			c.JSON(409, gin.H{"status": "error", "error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(404, gin.H{"status": "error", "error": "Наряд не найден"})
		default:
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка завершения наряда: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Наряд завершен"})
}

// GetWorkOrderReport формирует и отдает PDF наряда
func GetWorkOrderReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var order models.WorkOrder
	err := database.GetDB().Preload("System.Asset").
		Preload("Supervisor").
		Preload("Tasks").
		First(&order, id).Error
	if err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Наряд не найден"})
		return
	}

	data, fileName, err := services.NewReportService(database.GetDB()).GenerateWorkOrderPDF(&order)
	if err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка формирования PDF: " + err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	c.Data(200, "application/pdf", data)
}

// TaskUpdateRequest представляет запрос на изменение задачи наряда
type TaskUpdateRequest struct {
	Description   *string `json:"description"`
	News          *string `json:"news"`
	EvidenceURL   *string `json:"evidence_url"`
	StartDate     *string `json:"start_date"` // формат 2006-01-02
	ManDays       *int    `json:"man_days"`
	Finished      *bool   `json:"finished"`
	ResponsibleID *uint   `json:"responsible_id"`
}

// UpdateTask изменяет задачу наряда. Для ролей с принудительным
// самоназначением исполнитель всегда — текущий пользователь.
func UpdateTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var task models.Task
	if err := database.GetDB().First(&task, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"status": "error", "error": "Задача не найдена"})
		} else {
			c.JSON(500, gin.H{"status": "error", "error": "Ошибка получения задачи: " + err.Error()})
		}
		return
	}

	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные задачи: " + err.Error()})
		return
	}

	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.News != nil {
		task.News = *req.News
	}
	if req.EvidenceURL != nil {
		task.EvidenceURL = *req.EvidenceURL
	}
	if req.StartDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			c.JSON(400, gin.H{"status": "error", "error": "Некорректная дата начала, ожидается формат ГГГГ-ММ-ДД"})
			return
		}
		start := models.TruncateToDay(parsed)
		task.StartDate = &start
	}
	if req.ManDays != nil {
		if *req.ManDays < 1 {
			c.JSON(422, gin.H{"status": "error", "error": "Длительность задачи должна быть не меньше одного дня"})
			return
		}
		task.ManDays = *req.ManDays
	}
	if req.Finished != nil {
		task.Finished = *req.Finished
	}
	if req.ResponsibleID != nil {
		task.ResponsibleID = req.ResponsibleID
	}

	caps := middleware.GetCapabilities(c)
	if caps.ForceSelfAssign {
		if user := middleware.GetCurrentUser(c); user != nil {
			task.ResponsibleID = &user.ID
		}
	}

	if err := database.GetDB().Save(&task).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка обновления задачи: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "data": task})
}

// CreateTask добавляет задачу в наряд или шаблон в маршрут
func CreateTask(c *gin.Context) {
	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(400, gin.H{"status": "error", "error": "Некорректные данные задачи: " + err.Error()})
		return
	}

	if task.Description == "" {
		c.JSON(422, gin.H{"status": "error", "error": "Описание задачи обязательно"})
		return
	}
	if task.WorkOrderID == nil && task.RouteID == nil {
		c.JSON(422, gin.H{"status": "error", "error": "Задача должна принадлежать наряду или маршруту"})
		return
	}
	if task.ManDays < 1 {
		task.ManDays = 1
	}

	caps := middleware.GetCapabilities(c)
	if caps.ForceSelfAssign {
		if user := middleware.GetCurrentUser(c); user != nil {
			task.ResponsibleID = &user.ID
		}
	}

	if err := database.GetDB().Create(&task).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка создания задачи: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{"status": "success", "data": task})
}

// DeleteTask удаляет задачу
func DeleteTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var task models.Task
	if err := database.GetDB().First(&task, id).Error; err != nil {
		c.JSON(404, gin.H{"status": "error", "error": "Задача не найдена"})
		return
	}

	if err := database.GetDB().Delete(&task).Error; err != nil {
		c.JSON(500, gin.H{"status": "error", "error": "Ошибка удаления задачи: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "success", "message": "Задача удалена"})
}
