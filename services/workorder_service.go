package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"backend_fleetmaint/models"

	"gorm.io/gorm"
)

// Ошибки жизненного цикла нарядов
var (
	ErrOrderAlreadyExists   = errors.New("по отчету об отказе уже создан наряд")
	ErrOrderAlreadyClosed   = errors.New("наряд уже завершен")
	ErrEquipmentHasNoSystem = errors.New("оборудование не привязано к системе")
)

// Предохранитель обхода цепочки зависимых маршрутов: наряду с набором
// посещенных узлов ограничивает глубину при битых данных
const maxDependencyDepth = 32

// WorkOrderService управляет жизненным циклом нарядов: создание по
// маршруту или отказу, завершение с каскадным сбросом маршрутов
type WorkOrderService struct {
	db            *gorm.DB
	notifications *NotificationService
	reports       *ReportService
	cache         *CacheService

	// Подменяется в тестах для детерминированной даты
	Now func() time.Time
}

// NewWorkOrderService создает новый экземпляр WorkOrderService
func NewWorkOrderService(db *gorm.DB, notifications *NotificationService, reports *ReportService, cache *CacheService) *WorkOrderService {
	return &WorkOrderService{
		db:            db,
		notifications: notifications,
		reports:       reports,
		cache:         cache,
		Now:           time.Now,
	}
}

// CreateFromRoute создает плановые наряды по маршруту и всей цепочке его
// зависимостей: на каждый маршрут — свой наряд с копиями шаблонных задач.
// Возвращает созданные наряды в порядке обхода цепочки.
func (ws *WorkOrderService) CreateFromRoute(routeID uint, requestedBy *models.User) ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	visited := make(map[uint]bool)

	currentID := &routeID
	for depth := 0; currentID != nil && depth < maxDependencyDepth; depth++ {
		if visited[*currentID] {
			// Цикл в цепочке зависимостей: обход завершается штатно
			log.Printf("⚠️  Обнаружен цикл зависимостей маршрутов на маршруте %d", *currentID)
			break
		}
		visited[*currentID] = true

		var route models.MaintenanceRoute
		if err := ws.db.Preload("Tasks", "work_order_id IS NULL").First(&route, *currentID).Error; err != nil {
			return orders, fmt.Errorf("маршрут %d не найден: %w", *currentID, err)
		}

		order, err := ws.createOrderForRoute(&route, requestedBy)
		if err != nil {
			return orders, err
		}
		orders = append(orders, *order)

		currentID = route.DependencyID
	}

	if ws.cache != nil {
		if err := ws.cache.InvalidateDashboard(); err != nil {
			log.Printf("⚠️  Не удалось сбросить кэш дашборда: %v", err)
		}
	}

	return orders, nil
}

// createOrderForRoute создает наряд для одного маршрута и копирует
// в него шаблонные задачи
func (ws *WorkOrderService) createOrderForRoute(route *models.MaintenanceRoute, requestedBy *models.User) (*models.WorkOrder, error) {
	today := models.TruncateToDay(ws.Now())

	order := models.WorkOrder{
		Description:     fmt.Sprintf("Плановое обслуживание по маршруту «%s»", route.Name),
		State:           models.WorkOrderStateInExecution,
		MaintenanceType: models.MaintenanceTypePreventive,
		SystemID:        route.SystemID,
	}
	if requestedBy != nil {
		order.SupervisorID = &requestedBy.ID
	}

	err := ws.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("не удалось создать наряд: %w", err)
		}

		// Копируем шаблонные задачи маршрута в наряд
		for _, tmpl := range route.Tasks {
			start := today
			task := models.Task{
				WorkOrderID:        &order.ID,
				RouteID:            tmpl.RouteID,
				ResponsibleID:      tmpl.ResponsibleID,
				Description:        tmpl.Description,
				Procedure:          tmpl.Procedure,
				SafetyRequirements: tmpl.SafetyRequirements,
				Supplies:           tmpl.Supplies,
				StartDate:          &start,
				ManDays:            1,
				Finished:           false,
			}
			if err := tx.Create(&task).Error; err != nil {
				return fmt.Errorf("не удалось скопировать задачу маршрута: %w", err)
			}
		}

		// Привязываем маршрут к созданному наряду
		if err := tx.Model(route).Update("work_order_id", order.ID).Error; err != nil {
			return fmt.Errorf("не удалось привязать маршрут к наряду: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	route.WorkOrderID = &order.ID
	return &order, nil
}

// CreateFromFailureReport создает корректирующий наряд по отчету об отказе
func (ws *WorkOrderService) CreateFromFailureReport(reportID uint, requestedBy *models.User) (*models.WorkOrder, error) {
	var report models.FailureReport
	if err := ws.db.Preload("Equipment").First(&report, reportID).Error; err != nil {
		return nil, fmt.Errorf("отчет об отказе не найден: %w", err)
	}

	if report.HasRelatedOrder() {
		return nil, ErrOrderAlreadyExists
	}
	if report.Equipment == nil || report.Equipment.SystemID == nil {
		return nil, ErrEquipmentHasNoSystem
	}

	order := models.WorkOrder{
		Description:     fmt.Sprintf("Обслуживание по отчету об отказе #%d", report.ID),
		State:           models.WorkOrderStateInExecution,
		MaintenanceType: models.MaintenanceTypeCorrective,
		SystemID:        *report.Equipment.SystemID,
	}
	if requestedBy != nil {
		order.SupervisorID = &requestedBy.ID
	}

	err := ws.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("не удалось создать наряд: %w", err)
		}
		if err := tx.Model(&report).Update("related_work_order_id", order.ID).Error; err != nil {
			return fmt.Errorf("не удалось привязать отчет к наряду: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ws.cache != nil {
		if err := ws.cache.InvalidateDashboard(); err != nil {
			log.Printf("⚠️  Не удалось сбросить кэш дашборда: %v", err)
		}
	}

	return &order, nil
}

// Finish завершает наряд: переводит в состояние finished, каскадно
// сбрасывает даты вмешательства по привязанным маршрутам и их цепочкам
// зависимостей, закрывает связанный отчет об отказе и отправляет
// руководителю актива письмо с отчетными документами.
// Ошибка отправки письма не откатывает уже сохраненные изменения.
func (ws *WorkOrderService) Finish(orderID uint) error {
	var order models.WorkOrder
	err := ws.db.Preload("Tasks").
		Preload("System.Asset.Supervisor").
		First(&order, orderID).Error
	if err != nil {
		return fmt.Errorf("наряд не найден: %w", err)
	}

	if order.State == models.WorkOrderStateFinished {
		return ErrOrderAlreadyClosed
	}

	today := models.TruncateToDay(ws.Now())

	// 1. Фиксируем завершение наряда
	if err := ws.db.Model(&order).Update("state", models.WorkOrderStateFinished).Error; err != nil {
		return fmt.Errorf("не удалось завершить наряд: %w", err)
	}
	order.State = models.WorkOrderStateFinished

	// 2. Сбрасываем маршруты, привязанные к наряду, и их цепочки
	var routes []models.MaintenanceRoute
	if err := ws.db.Where("work_order_id = ?", orderID).Find(&routes).Error; err != nil {
		return fmt.Errorf("не удалось получить маршруты наряда: %w", err)
	}
	visited := make(map[uint]bool)
	for i := range routes {
		if err := ws.resetInterventionChain(&routes[i], today, visited, 0); err != nil {
			return err
		}
	}

	// 3. Закрываем связанный отчет об отказе
	if err := ws.db.Model(&models.FailureReport{}).
		Where("related_work_order_id = ?", orderID).
		Update("closed", true).Error; err != nil {
		return fmt.Errorf("не удалось закрыть отчет об отказе: %w", err)
	}

	if ws.cache != nil {
		if err := ws.cache.InvalidateDashboard(); err != nil {
			log.Printf("⚠️  Не удалось сбросить кэш дашборда: %v", err)
		}
	}

	// 4. Уведомляем руководителя актива с приложением документов
	return ws.sendFinishedNotification(&order)
}

// resetInterventionChain устанавливает дату вмешательства маршрута и всей
// его цепочки зависимостей на today. Набор посещенных узлов и ограничение
// глубины гарантируют завершение при циклах в данных.
func (ws *WorkOrderService) resetInterventionChain(route *models.MaintenanceRoute, today time.Time, visited map[uint]bool, depth int) error {
	if depth >= maxDependencyDepth {
		log.Printf("⚠️  Достигнута предельная глубина цепочки зависимостей на маршруте %d", route.ID)
		return nil
	}
	if visited[route.ID] {
		return nil
	}
	visited[route.ID] = true

	if err := ws.db.Model(route).Update("intervention_date", today).Error; err != nil {
		return fmt.Errorf("не удалось сбросить дату вмешательства маршрута %d: %w", route.ID, err)
	}

	if route.DependencyID == nil {
		return nil
	}

	var next models.MaintenanceRoute
	if err := ws.db.First(&next, *route.DependencyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return ws.resetInterventionChain(&next, today, visited, depth+1)
}

// sendFinishedNotification отправляет руководителю актива письмо о
// завершении наряда с PDF наряда и отчетом подрядчика
func (ws *WorkOrderService) sendFinishedNotification(order *models.WorkOrder) error {
	if ws.notifications == nil {
		return nil
	}

	supervisor := orderAssetSupervisor(order)
	if supervisor == nil || supervisor.Email == "" {
		log.Printf("⚠️  У актива наряда %d нет руководителя с email, уведомление пропущено", order.ID)
		return nil
	}

	var attachments []EmailAttachment

	if ws.reports != nil {
		pdfData, fileName, err := ws.reports.GenerateWorkOrderPDF(order)
		if err != nil {
			return fmt.Errorf("не удалось сформировать PDF наряда: %w", err)
		}
		attachments = append(attachments, EmailAttachment{Name: fileName, Data: pdfData})
	}

	if order.ContractorReportPath != "" {
		data, err := os.ReadFile(order.ContractorReportPath)
		if err != nil {
			return fmt.Errorf("не удалось прочитать отчет подрядчика: %w", err)
		}
		attachments = append(attachments, EmailAttachment{
			Name: fmt.Sprintf("contractor_report_%d.pdf", order.ID),
			Data: data,
		})
	}

	return ws.notifications.SendWorkOrderFinished(order, supervisor, attachments)
}

// orderAssetSupervisor возвращает руководителя актива наряда, если загружен
func orderAssetSupervisor(order *models.WorkOrder) *models.User {
	if order.System == nil || order.System.Asset == nil {
		return nil
	}
	return order.System.Asset.Supervisor
}
