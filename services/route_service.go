package services

import (
	"errors"
	"fmt"
	"time"

	"backend_fleetmaint/models"

	"gorm.io/gorm"
)

// Ошибки валидации маршрутов
var (
	ErrInvalidFrequency  = errors.New("периодичность маршрута должна быть больше нуля")
	ErrEquipmentRequired = errors.New("для контроля по моточасам требуется оборудование")
)

// RouteService вычисляет плановые показатели маршрутов обслуживания
type RouteService struct {
	db    *gorm.DB
	usage *UsageService

	// Подменяется в тестах для детерминированной даты
	Now func() time.Time
}

// NewRouteService создает новый экземпляр RouteService
func NewRouteService(db *gorm.DB) *RouteService {
	return &RouteService{
		db:    db,
		usage: NewUsageService(db),
		Now:   time.Now,
	}
}

// ValidateRoute проверяет корректность маршрута перед сохранением
func (rs *RouteService) ValidateRoute(route *models.MaintenanceRoute) error {
	if route.Frequency <= 0 {
		return ErrInvalidFrequency
	}
	if !models.IsValidRouteControlMode(route.ControlMode) {
		return fmt.Errorf("неизвестный режим контроля: %s", route.ControlMode)
	}
	if route.ControlMode == models.RouteControlHours && route.EquipmentID == nil {
		return ErrEquipmentRequired
	}
	return nil
}

// ComputeIndicators вычисляет показатели маршрута на текущую дату.
// Маршрут должен быть загружен вместе со связанными WorkOrder и Equipment.
func (rs *RouteService) ComputeIndicators(route *models.MaintenanceRoute) (models.RouteIndicators, error) {
	today := rs.Now()

	consumed := 0
	avgDaily := 0.0

	if route.ControlMode == models.RouteControlHours && route.EquipmentID != nil {
		var err error
		consumed, err = rs.usage.ConsumedHoursSince(*route.EquipmentID, route.InterventionDate, today)
		if err != nil {
			return models.RouteIndicators{}, err
		}

		if route.Equipment != nil {
			avgDaily = route.Equipment.AvgDailyHours
		} else {
			var equipment models.Equipment
			if err := rs.db.First(&equipment, *route.EquipmentID).Error; err == nil {
				avgDaily = equipment.AvgDailyHours
			}
		}
	}

	return route.ComputeIndicators(consumed, avgDaily, today), nil
}

// RouteWithIndicators объединяет маршрут с вычисленными показателями
type RouteWithIndicators struct {
	models.MaintenanceRoute
	Indicators models.RouteIndicators `json:"indicators"`
}

// RouteFilter описывает фильтры списка маршрутов
type RouteFilter struct {
	SystemID    uint
	AssetID     uint
	ControlMode string
	Status      string
	Area        string // область видимости пользователя
	ExcludeArea string
}

// ListWithIndicators возвращает маршруты с показателями, отфильтрованные
// по системе, активу, режиму и статусу
func (rs *RouteService) ListWithIndicators(filter RouteFilter) ([]RouteWithIndicators, error) {
	query := rs.db.Preload("System.Asset").
		Preload("Equipment").
		Preload("WorkOrder").
		Joins("JOIN systems ON systems.id = maintenance_routes.system_id").
		Joins("JOIN assets ON assets.id = systems.asset_id")

	if filter.SystemID != 0 {
		query = query.Where("maintenance_routes.system_id = ?", filter.SystemID)
	}
	if filter.AssetID != 0 {
		query = query.Where("systems.asset_id = ?", filter.AssetID)
	}
	if filter.ControlMode != "" {
		query = query.Where("maintenance_routes.control_mode = ?", filter.ControlMode)
	}
	if filter.Area != "" {
		query = query.Where("assets.area = ?", filter.Area)
	}
	if filter.ExcludeArea != "" {
		query = query.Where("assets.area <> ?", filter.ExcludeArea)
	}

	var routes []models.MaintenanceRoute
	if err := query.Order("maintenance_routes.id").Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("не удалось получить маршруты: %w", err)
	}

	result := make([]RouteWithIndicators, 0, len(routes))
	for i := range routes {
		ind, err := rs.ComputeIndicators(&routes[i])
		if err != nil {
			return nil, err
		}
		// Статус фильтруется после вычисления: он не хранится в БД
		if filter.Status != "" && ind.MaintenanceStatus != filter.Status {
			continue
		}
		result = append(result, RouteWithIndicators{
			MaintenanceRoute: routes[i],
			Indicators:       ind,
		})
	}

	return result, nil
}

// StatusSummary возвращает распределение маршрутов по статусам
func (rs *RouteService) StatusSummary(filter RouteFilter) (map[string]int, error) {
	filter.Status = ""
	routes, err := rs.ListWithIndicators(filter)
	if err != nil {
		return nil, err
	}

	summary := map[string]int{
		models.RouteStatusPendingOrder: 0,
		models.RouteStatusOK:           0,
		models.RouteStatusAttention:    0,
		models.RouteStatusOverdue:      0,
	}
	for _, r := range routes {
		summary[r.Indicators.MaintenanceStatus]++
	}

	return summary, nil
}

// DueRoutesBySupervisor группирует проблемные маршруты по руководителям
// активов для ежедневной рассылки
func (rs *RouteService) DueRoutesBySupervisor() (map[uint][]RouteWithIndicators, error) {
	routes, err := rs.ListWithIndicators(RouteFilter{})
	if err != nil {
		return nil, err
	}

	due := make(map[uint][]RouteWithIndicators)
	for _, r := range routes {
		status := r.Indicators.MaintenanceStatus
		if status != models.RouteStatusOverdue && status != models.RouteStatusAttention {
			continue
		}
		if r.System == nil || r.System.Asset == nil || r.System.Asset.SupervisorID == nil {
			continue
		}
		supervisorID := *r.System.Asset.SupervisorID
		due[supervisorID] = append(due[supervisorID], r)
	}

	return due, nil
}
