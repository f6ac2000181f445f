package models

import (
	"time"

	"gorm.io/gorm"
)

// Operation представляет коммерческую операцию актива: занятость
// в проекте на интервале дат [StartDate, EndDate] включительно
type Operation struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	ProjectName string    `json:"project_name" gorm:"not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null;index"`
	EndDate     time.Time `json:"end_date" gorm:"not null;index"`

	// Проставляется при чтении, в БД не хранится
	Duration int `json:"duration_days" gorm:"-"`

	// Связи
	AssetID uint   `json:"asset_id" gorm:"not null;index"`
	Asset   *Asset `json:"asset,omitempty" gorm:"foreignKey:AssetID"`
}

// TableName задает имя таблицы для модели Operation
func (Operation) TableName() string {
	return "operations"
}

// Overlaps сообщает, пересекается ли операция с интервалом [start, end].
// Границы включительные: совпадение крайних дат считается пересечением.
func (o *Operation) Overlaps(start, end time.Time) bool {
	s := TruncateToDay(start)
	e := TruncateToDay(end)
	return !TruncateToDay(o.EndDate).Before(s) && !TruncateToDay(o.StartDate).After(e)
}

// DurationDays возвращает длительность операции в днях (включительно)
func (o *Operation) DurationDays() int {
	return daysBetween(o.StartDate, o.EndDate) + 1
}

// AfterFind проставляет длительность операции
func (o *Operation) AfterFind(tx *gorm.DB) error {
	o.Duration = o.DurationDays()
	return nil
}
