package models

import (
	"time"

	"gorm.io/gorm"
)

// FailureReport представляет отчет об отказе оборудования
type FailureReport struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Description     string   `json:"description" gorm:"type:text;not null"`
	ProbableCauses  string   `json:"probable_causes" gorm:"type:text"`
	SuggestedRepair string   `json:"suggested_repair" gorm:"type:text"`
	IsCritical      bool     `json:"is_critical" gorm:"default:false"`
	ImpactAreas     []string `json:"impact_areas" gorm:"serializer:json"` // безопасность, экология, операции...
	EvidenceURL     string   `json:"evidence_url"`
	Closed          bool     `json:"closed" gorm:"default:false;index"`

	// Связи
	EquipmentID uint       `json:"equipment_id" gorm:"not null;index"`
	Equipment   *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
	ReporterID  *uint      `json:"reporter_id" gorm:"index"`
	Reporter    *User      `json:"reporter,omitempty" gorm:"foreignKey:ReporterID"`

	// Корректирующий наряд, созданный по отчету
	RelatedWorkOrderID *uint      `json:"related_work_order_id" gorm:"index"`
	RelatedWorkOrder   *WorkOrder `json:"related_work_order,omitempty" gorm:"foreignKey:RelatedWorkOrderID"`
}

// TableName задает имя таблицы для модели FailureReport
func (FailureReport) TableName() string {
	return "failure_reports"
}

// HasRelatedOrder сообщает, создан ли по отчету корректирующий наряд
func (fr *FailureReport) HasRelatedOrder() bool {
	return fr.RelatedWorkOrderID != nil
}
