package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Роли пользователей системы
const (
	RoleSupervisor   = "supervisor"    // руководитель: полный доступ
	RoleTechnician   = "technician"    // техник: все активы кроме водолазной зоны
	RoleDiver        = "diver"         // водолаз: только активы водолазной зоны
	RoleFleetManager = "fleet_manager" // менеджер флота: просмотр всего, без руководящих действий
)

// User представляет пользователя системы
type User struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"` // Хэш bcrypt, не возвращается в JSON

	// Дополнительные поля
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      string     `json:"role" gorm:"default:'technician'"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	LastLogin *time.Time `json:"last_login"`
}

// TableName задает имя таблицы для модели User
func (User) TableName() string {
	return "users"
}

// Capabilities описывает права, вычисленные из роли пользователя.
// Вычисляется один раз на запрос в middleware.
type Capabilities struct {
	CanSupervise     bool   // создание систем/маршрутов, закрытие ОТ, запуск маршрутов
	ViewAllAssets    bool   // видит активы всех зон
	RestrictedArea   string // единственная доступная зона ("" = без ограничения по одной зоне)
	ExcludedArea     string // зона, скрытая от пользователя
	ForceSelfAssign  bool   // создаваемые задачи/ОТ принудительно назначаются на себя
	CanManageUsers   bool   // управление учетными записями
	CanCloseFailures bool   // явное закрытие отчетов об отказах
}

// Capabilities разворачивает роль в набор прав
func (u *User) Capabilities() Capabilities {
	switch u.Role {
	case RoleSupervisor:
		return Capabilities{
			CanSupervise:     true,
			ViewAllAssets:    true,
			CanManageUsers:   true,
			CanCloseFailures: true,
		}
	case RoleFleetManager:
		return Capabilities{
			ViewAllAssets:   true,
			ForceSelfAssign: true,
		}
	case RoleDiver:
		return Capabilities{
			RestrictedArea:  AssetAreaDiving,
			ForceSelfAssign: true,
		}
	default: // technician
		return Capabilities{
			ExcludedArea:    AssetAreaDiving,
			ForceSelfAssign: true,
		}
	}
}

// FullName возвращает полное имя пользователя
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// SetPassword хэширует и устанавливает пароль пользователя
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword проверяет пароль пользователя
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// IsValidRole проверяет, что роль входит в известный перечень
func IsValidRole(role string) bool {
	switch role {
	case RoleSupervisor, RoleTechnician, RoleDiver, RoleFleetManager:
		return true
	}
	return false
}
