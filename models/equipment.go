package models

import (
	"time"

	"gorm.io/gorm"
)

// Типы оборудования
const (
	EquipmentTypeRotating    = "rotating"     // наработка учитывается по моточасам
	EquipmentTypeNonRotating = "non_rotating" // без учета моточасов
)

// Equipment представляет единицу оборудования в составе системы
type Equipment struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Code         string `json:"code" gorm:"not null;uniqueIndex"`
	Name         string `json:"name" gorm:"not null"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	Brand        string `json:"brand"`
	Manufacturer string `json:"manufacturer"`
	Features     string `json:"features" gorm:"type:text"`
	Type         string `json:"type" gorm:"default:'non_rotating'"`

	// Ссылки на внешнее файловое хранилище
	ImageURL  string `json:"image_url"`
	ManualURL string `json:"manual_url"`

	// Учет наработки
	InventoryDate *time.Time `json:"inventory_date"`
	InitialHours  int        `json:"initial_hours" gorm:"default:0"` // наработка до постановки на учет
	Horometer     int        `json:"horometer" gorm:"default:0"`     // производное: initial + сумма отчетов
	AvgDailyHours float64    `json:"avg_daily_hours" gorm:"default:0"`

	// Связи
	SystemID    *uint        `json:"system_id" gorm:"index"`
	System      *System      `json:"system,omitempty" gorm:"foreignKey:SystemID"`
	HourReports []HourReport `json:"hour_reports,omitempty" gorm:"foreignKey:EquipmentID;constraint:OnDelete:CASCADE"`
}

// TableName задает имя таблицы для модели Equipment
func (Equipment) TableName() string {
	return "equipment"
}

// IsRotating сообщает, ведется ли для оборудования учет моточасов
func (e *Equipment) IsRotating() bool {
	return e.Type == EquipmentTypeRotating
}

// HourReport представляет суточный отчет о наработке оборудования.
// На пару (оборудование, дата) допускается не более одной записи.
type HourReport struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	ReportDate time.Time `json:"report_date" gorm:"not null;uniqueIndex:idx_hour_reports_equipment_date"`
	Hours      int       `json:"hours" gorm:"not null"` // 0..24 включительно

	// Связи
	EquipmentID uint       `json:"equipment_id" gorm:"not null;uniqueIndex:idx_hour_reports_equipment_date"`
	Equipment   *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
	ReporterID  *uint      `json:"reporter_id" gorm:"index"`
	Reporter    *User      `json:"reporter,omitempty" gorm:"foreignKey:ReporterID"`
}

// TableName задает имя таблицы для модели HourReport
func (HourReport) TableName() string {
	return "hour_reports"
}

// IsValidHours проверяет суточную наработку: сутки не длиннее 24 часов
func IsValidHours(hours int) bool {
	return hours >= 0 && hours <= 24
}
