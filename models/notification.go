package models

import (
	"time"

	"gorm.io/gorm"
)

// Типы уведомлений
const (
	NotificationTypeFailureReportCreated = "failure_report_created"
	NotificationTypeWorkOrderFinished    = "work_order_finished"
	NotificationTypeMaintenanceDue       = "maintenance_due"
)

// Каналы доставки уведомлений
const (
	NotificationChannelEmail    = "email"
	NotificationChannelTelegram = "telegram"
)

// NotificationTemplate представляет шаблон уведомления
type NotificationTemplate struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Name        string `json:"name" gorm:"not null;uniqueIndex"`   // Уникальное имя шаблона
	Type        string `json:"type" gorm:"not null;index"`         // failure_report_created, maintenance_due...
	Channel     string `json:"channel" gorm:"not null"`            // email, telegram
	Subject     string `json:"subject"`                            // Тема сообщения (для email)
	Template    string `json:"template" gorm:"type:text;not null"` // Шаблон с плейсхолдерами
	Description string `json:"description"`                        // Описание шаблона
	IsActive    bool   `json:"is_active" gorm:"default:true"`      // Активен ли шаблон

	// Настройки отправки
	RetryAttempts int `json:"retry_attempts" gorm:"default:3"` // Количество попыток отправки
}

// TableName задает имя таблицы для модели NotificationTemplate
func (NotificationTemplate) TableName() string {
	return "notification_templates"
}

// NotificationLog представляет лог отправленных уведомлений
type NotificationLog struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Type         string     `json:"type" gorm:"not null"`              // Тип уведомления
	Channel      string     `json:"channel" gorm:"not null"`           // Канал отправки
	Recipient    string     `json:"recipient" gorm:"not null"`         // Получатель
	Subject      string     `json:"subject"`                           // Тема (для email)
	Message      string     `json:"message" gorm:"type:text;not null"` // Текст сообщения
	Status       string     `json:"status" gorm:"default:'pending'"`   // pending, sent, failed, retry
	ErrorMessage string     `json:"error_message" gorm:"type:text"`    // Сообщение об ошибке
	SentAt       *time.Time `json:"sent_at"`                           // Время отправки

	// Связанные сущности
	RelatedID   *uint  `json:"related_id"`           // ID связанной сущности
	RelatedType string `json:"related_type"`         // work_order, failure_report, route
	UserID      *uint  `json:"user_id" gorm:"index"` // ID пользователя-получателя

	// Метаданные
	TemplateID   *uint      `json:"template_id" gorm:"index"`       // ID использованного шаблона
	AttemptCount int        `json:"attempt_count" gorm:"default:0"` // Количество попыток
	NextRetryAt  *time.Time `json:"next_retry_at"`                  // Время следующей попытки

	// Связи
	Template *NotificationTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	User     *User                 `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName задает имя таблицы для модели NotificationLog
func (NotificationLog) TableName() string {
	return "notification_logs"
}

// GetStatusDisplayName возвращает читаемое название статуса
func (nl *NotificationLog) GetStatusDisplayName() string {
	switch nl.Status {
	case "pending":
		return "Ожидает отправки"
	case "sent":
		return "Отправлено"
	case "failed":
		return "Ошибка отправки"
	case "retry":
		return "Повторная попытка"
	default:
		return "Неизвестно"
	}
}

// GetChannelDisplayName возвращает читаемое название канала
func (nl *NotificationLog) GetChannelDisplayName() string {
	switch nl.Channel {
	case NotificationChannelTelegram:
		return "Telegram"
	case NotificationChannelEmail:
		return "Email"
	default:
		return "Неизвестно"
	}
}
