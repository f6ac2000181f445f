package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Режимы контроля периодичности маршрута
const (
	RouteControlDays  = "days"  // по календарным дням
	RouteControlHours = "hours" // по моточасам оборудования
)

// Статусы обслуживания маршрута
const (
	RouteStatusPendingOrder = "pending_order" // ОТ на цикл еще не создан
	RouteStatusOK           = "ok"
	RouteStatusAttention    = "attention"
	RouteStatusOverdue      = "overdue"
)

// MaintenanceRoute представляет повторяющуюся программу обслуживания
// системы: набор шаблонных задач и периодичность их выполнения
type MaintenanceRoute struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Name             string    `json:"name" gorm:"not null"`
	Description      string    `json:"description" gorm:"type:text"`
	ControlMode      string    `json:"control_mode" gorm:"not null;default:'days'"`
	Frequency        int       `json:"frequency" gorm:"not null"` // дни либо моточасы, > 0
	InterventionDate time.Time `json:"intervention_date" gorm:"not null"`

	// Связи
	SystemID uint    `json:"system_id" gorm:"not null;index"`
	System   *System `json:"system,omitempty" gorm:"foreignKey:SystemID"`

	// Оборудование-источник моточасов (обязательно при ControlMode == hours)
	EquipmentID *uint      `json:"equipment_id" gorm:"index"`
	Equipment   *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`

	// Последний созданный по маршруту наряд
	WorkOrderID *uint      `json:"work_order_id" gorm:"index"`
	WorkOrder   *WorkOrder `json:"work_order,omitempty" gorm:"foreignKey:WorkOrderID"`

	// Зависимый маршрут: при закрытии наряда цепочка сбрасывается каскадно
	DependencyID *uint             `json:"dependency_id" gorm:"index"`
	Dependency   *MaintenanceRoute `json:"dependency,omitempty" gorm:"foreignKey:DependencyID"`

	// Шаблонные задачи маршрута (RouteID задан, WorkOrderID пуст)
	Tasks []Task `json:"tasks,omitempty" gorm:"foreignKey:RouteID"`
}

// TableName задает имя таблицы для модели MaintenanceRoute
func (MaintenanceRoute) TableName() string {
	return "maintenance_routes"
}

// RouteIndicators содержит вычисленные показатели маршрута
type RouteIndicators struct {
	NextDate            time.Time `json:"next_date"`
	DaysRemaining       int       `json:"days_remaining"`
	ConsumedHours       int       `json:"consumed_hours"`
	PercentageRemaining int       `json:"percentage_remaining"`
	MaintenanceStatus   string    `json:"maintenance_status"`
}

// ComputeIndicators вычисляет плановые показатели маршрута на дату today.
// consumedHours — наработка с даты последнего вмешательства по сегодня,
// avgDaily — средняя суточная наработка оборудования (0, если данных нет).
// Деление всегда защищено: при нулевом темпе или отсутствии оборудования
// делитель равен 1.
func (r *MaintenanceRoute) ComputeIndicators(consumedHours int, avgDaily float64, today time.Time) RouteIndicators {
	today = TruncateToDay(today)

	ind := RouteIndicators{ConsumedHours: consumedHours}

	switch r.ControlMode {
	case RouteControlHours:
		remaining := r.Frequency - consumedHours
		divisor := avgDaily
		if r.EquipmentID == nil || divisor == 0 {
			divisor = 1
		}
		ind.DaysRemaining = int(float64(remaining) / divisor)
		ind.NextDate = today.AddDate(0, 0, ind.DaysRemaining)
		ind.PercentageRemaining = roundPercent(remaining, r.Frequency)
	default: // days
		ind.NextDate = TruncateToDay(r.InterventionDate).AddDate(0, 0, r.Frequency)
		ind.DaysRemaining = daysBetween(today, ind.NextDate)
		ind.PercentageRemaining = roundPercent(ind.DaysRemaining, r.Frequency)
	}

	ind.MaintenanceStatus = r.statusFor(ind.PercentageRemaining)
	return ind
}

// statusFor определяет статус обслуживания по проценту остатка.
// Порядок веток фиксирован: от него зависит раскраска индикаторов.
func (r *MaintenanceRoute) statusFor(pct int) string {
	if r.WorkOrderID == nil {
		return RouteStatusPendingOrder
	}
	if pct <= 10 && r.WorkOrderID == nil {
		return RouteStatusAttention
	}
	if r.WorkOrder != nil && r.WorkOrder.State == WorkOrderStateInExecution {
		return RouteStatusAttention
	}
	switch {
	case pct >= 25 && pct <= 100:
		return RouteStatusOK
	case pct >= 5 && pct <= 24:
		return RouteStatusAttention
	default:
		return RouteStatusOverdue
	}
}

// daysBetween возвращает число календарных суток от a до b.
// Даты могут приходить в разных часовых поясах (часы сервера против
// дат из БД), поэтому сравниваются календарные дни, а не моменты.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// roundPercent возвращает округленный до целого процент remaining/total.
// Результат может быть отрицательным или больше 100.
func roundPercent(remaining, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(remaining) / float64(total)))
}

// TruncateToDay обнуляет время, оставляя календарную дату
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsValidRouteControlMode проверяет режим контроля
func IsValidRouteControlMode(mode string) bool {
	return mode == RouteControlDays || mode == RouteControlHours
}

// GetStatusDisplayName возвращает читаемое название статуса маршрута
func GetRouteStatusDisplayName(status string) string {
	switch status {
	case RouteStatusPendingOrder:
		return "Ожидает наряда"
	case RouteStatusOK:
		return "В норме"
	case RouteStatusAttention:
		return "Требует внимания"
	case RouteStatusOverdue:
		return "Просрочен"
	default:
		return "Неизвестно"
	}
}
