package models

import (
	"time"

	"gorm.io/gorm"
)

// Состояния нарядов на работы
const (
	WorkOrderStateOpen        = "open"
	WorkOrderStateInExecution = "in_execution"
	WorkOrderStateFinished    = "finished"
	WorkOrderStateCancelled   = "cancelled"
)

// Виды технического обслуживания
const (
	MaintenanceTypePreventive   = "preventive"   // плановое (по маршруту)
	MaintenanceTypeCorrective   = "corrective"   // по отказу
	MaintenanceTypeModificative = "modificative" // модернизация
)

// WorkOrder представляет наряд на выполнение работ по системе
type WorkOrder struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Description     string `json:"description" gorm:"type:text;not null"`
	State           string `json:"state" gorm:"default:'open';index"`
	MaintenanceType string `json:"maintenance_type" gorm:"default:'preventive';index"`

	// Ссылка на сохраненный отчет подрядчика (внешнее хранилище)
	ContractorReportPath string `json:"contractor_report_path"`

	// Связи
	SystemID     uint    `json:"system_id" gorm:"not null;index"`
	System       *System `json:"system,omitempty" gorm:"foreignKey:SystemID"`
	SupervisorID *uint   `json:"supervisor_id" gorm:"index"`
	Supervisor   *User   `json:"supervisor,omitempty" gorm:"foreignKey:SupervisorID"`

	Tasks []Task `json:"tasks,omitempty" gorm:"foreignKey:WorkOrderID"`
}

// TableName задает имя таблицы для модели WorkOrder
func (WorkOrder) TableName() string {
	return "work_orders"
}

// AllTasksFinished сообщает, выполнены ли все задачи наряда.
// Наряд без задач выполненным не считается.
func (wo *WorkOrder) AllTasksFinished() bool {
	if len(wo.Tasks) == 0 {
		return false
	}
	for _, t := range wo.Tasks {
		if !t.Finished {
			return false
		}
	}
	return true
}

// GetStateDisplayName возвращает читаемое название состояния наряда
func (wo *WorkOrder) GetStateDisplayName() string {
	switch wo.State {
	case WorkOrderStateOpen:
		return "Открыт"
	case WorkOrderStateInExecution:
		return "В работе"
	case WorkOrderStateFinished:
		return "Завершен"
	case WorkOrderStateCancelled:
		return "Отменен"
	default:
		return "Неизвестно"
	}
}

// GetMaintenanceTypeDisplayName возвращает читаемое название вида ТО
func (wo *WorkOrder) GetMaintenanceTypeDisplayName() string {
	switch wo.MaintenanceType {
	case MaintenanceTypePreventive:
		return "Плановое"
	case MaintenanceTypeCorrective:
		return "По отказу"
	case MaintenanceTypeModificative:
		return "Модернизация"
	default:
		return "Неизвестно"
	}
}

// IsValidWorkOrderState проверяет состояние наряда
func IsValidWorkOrderState(state string) bool {
	switch state {
	case WorkOrderStateOpen, WorkOrderStateInExecution, WorkOrderStateFinished, WorkOrderStateCancelled:
		return true
	}
	return false
}

// IsValidMaintenanceType проверяет вид ТО
func IsValidMaintenanceType(mtype string) bool {
	switch mtype {
	case MaintenanceTypePreventive, MaintenanceTypeCorrective, MaintenanceTypeModificative:
		return true
	}
	return false
}

// Task представляет задачу: либо шаблон в составе маршрута (RouteID задан,
// WorkOrderID пуст), либо рабочую задачу в составе наряда
type Task struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Description        string `json:"description" gorm:"type:text;not null"`
	Procedure          string `json:"procedure" gorm:"type:text"`
	SafetyRequirements string `json:"safety_requirements" gorm:"type:text"`
	Supplies           string `json:"supplies" gorm:"type:text"`
	News               string `json:"news" gorm:"type:text"` // заметки по ходу выполнения
	EvidenceURL        string `json:"evidence_url"`

	StartDate *time.Time `json:"start_date"`
	ManDays   int        `json:"man_days" gorm:"default:1"` // плановая длительность в днях
	Finished  bool       `json:"finished" gorm:"default:false"`

	// Проставляется при чтении, в БД не хранится
	Overdue bool `json:"is_overdue" gorm:"-"`

	// Связи
	WorkOrderID   *uint             `json:"work_order_id" gorm:"index"`
	WorkOrder     *WorkOrder        `json:"work_order,omitempty" gorm:"foreignKey:WorkOrderID"`
	RouteID       *uint             `json:"route_id" gorm:"index"`
	Route         *MaintenanceRoute `json:"route,omitempty" gorm:"foreignKey:RouteID"`
	ResponsibleID *uint             `json:"responsible_id" gorm:"index"`
	Responsible   *User             `json:"responsible,omitempty" gorm:"foreignKey:ResponsibleID"`
}

// TableName задает имя таблицы для модели Task
func (Task) TableName() string {
	return "tasks"
}

// FinalDate возвращает плановую дату завершения задачи
func (t *Task) FinalDate() *time.Time {
	if t.StartDate == nil {
		return nil
	}
	days := t.ManDays
	if days < 1 {
		days = 1
	}
	final := TruncateToDay(*t.StartDate).AddDate(0, 0, days-1)
	return &final
}

// IsOverdue сообщает, просрочена ли незавершенная задача на дату today
func (t *Task) IsOverdue(today time.Time) bool {
	final := t.FinalDate()
	if t.Finished || final == nil {
		return false
	}
	return final.Before(TruncateToDay(today))
}

// IsTemplate сообщает, является ли задача шаблоном маршрута
func (t *Task) IsTemplate() bool {
	return t.RouteID != nil && t.WorkOrderID == nil
}

// AfterFind проставляет признак просроченности на текущую дату
func (t *Task) AfterFind(tx *gorm.DB) error {
	t.Overdue = t.IsOverdue(time.Now())
	return nil
}
