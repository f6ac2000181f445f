package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Зоны эксплуатации активов
const (
	AssetAreaTugboat      = "tugboat"      // буксиры
	AssetAreaDiving       = "diving"       // водолазные работы
	AssetAreaOceanography = "oceanography" // океанография
	AssetAreaLogistics    = "logistics"    // логистика и береговые объекты
	AssetAreaVehicle      = "vehicle"      // автотранспорт
	AssetAreaSupport      = "support"      // вспомогательные единицы
)

// Состояния систем
const (
	SystemStateOperational  = "operational"
	SystemStateMaintenance  = "maintenance"
	SystemStateOutOfService = "out_of_service"
)

// Asset представляет эксплуатационную единицу: судно, станцию или транспорт
type Asset struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Name     string `json:"name" gorm:"not null;uniqueIndex"`
	Area     string `json:"area" gorm:"not null;index"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	// Ответственный руководитель
	SupervisorID *uint `json:"supervisor_id" gorm:"index"`
	Supervisor   *User `json:"supervisor,omitempty" gorm:"foreignKey:SupervisorID"`

	// Судовые характеристики (заполняются для плавсредств)
	FlagState      string           `json:"flag_state"`
	LengthOverall  *decimal.Decimal `json:"length_overall" gorm:"type:decimal(8,2)"` // метры
	Beam           *decimal.Decimal `json:"beam" gorm:"type:decimal(8,2)"`
	Depth          *decimal.Decimal `json:"depth" gorm:"type:decimal(8,2)"`
	MaxDraft       *decimal.Decimal `json:"max_draft" gorm:"type:decimal(8,2)"`
	Deadweight     *int             `json:"deadweight"` // тонны
	GrossTonnage   *int             `json:"gross_tonnage"`
	NetTonnage     *int             `json:"net_tonnage"`
	ClearDeckSpace *int             `json:"clear_deck_space"` // кв. метры

	// Связи
	Systems    []System    `json:"systems,omitempty" gorm:"foreignKey:AssetID"`
	Operations []Operation `json:"operations,omitempty" gorm:"foreignKey:AssetID"`
}

// TableName задает имя таблицы для модели Asset
func (Asset) TableName() string {
	return "assets"
}

// GetAreaDisplayName возвращает читаемое название зоны
func (a *Asset) GetAreaDisplayName() string {
	switch a.Area {
	case AssetAreaTugboat:
		return "Буксиры"
	case AssetAreaDiving:
		return "Водолазные работы"
	case AssetAreaOceanography:
		return "Океанография"
	case AssetAreaLogistics:
		return "Логистика"
	case AssetAreaVehicle:
		return "Автотранспорт"
	case AssetAreaSupport:
		return "Вспомогательные"
	default:
		return a.Area
	}
}

// IsValidAssetArea проверяет значение зоны
func IsValidAssetArea(area string) bool {
	switch area {
	case AssetAreaTugboat, AssetAreaDiving, AssetAreaOceanography,
		AssetAreaLogistics, AssetAreaVehicle, AssetAreaSupport:
		return true
	}
	return false
}

// System представляет функциональную систему в составе актива
// (двигательная установка, палубное оборудование и т.п.)
type System struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Name      string `json:"name" gorm:"not null"`
	GroupCode int    `json:"group_code" gorm:"default:0"` // код группы для сортировки
	Location  string `json:"location"`
	State     string `json:"state" gorm:"default:'operational'"`

	// Связи
	AssetID   uint               `json:"asset_id" gorm:"not null;index"`
	Asset     *Asset             `json:"asset,omitempty" gorm:"foreignKey:AssetID"`
	Equipment []Equipment        `json:"equipment,omitempty" gorm:"foreignKey:SystemID"`
	Routes    []MaintenanceRoute `json:"routes,omitempty" gorm:"foreignKey:SystemID"`
}

// TableName задает имя таблицы для модели System
func (System) TableName() string {
	return "systems"
}

// IsValidSystemState проверяет значение состояния системы
func IsValidSystemState(state string) bool {
	switch state {
	case SystemStateOperational, SystemStateMaintenance, SystemStateOutOfService:
		return true
	}
	return false
}
