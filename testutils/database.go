package testutils

import (
	"log"
	"time"

	"backend_fleetmaint/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB создает и настраивает тестовую базу данных в памяти
// Эта функция должна использоваться во всех тестах для обеспечения консистентности
func SetupTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Выполняем миграции в правильном порядке
	err = db.AutoMigrate(
		// Пользователи
		&models.User{},

		// Парк: активы, системы, оборудование
		&models.Asset{},
		&models.System{},
		&models.Equipment{},
		&models.HourReport{},

		// Обслуживание
		&models.MaintenanceRoute{},
		&models.WorkOrder{},
		&models.Task{},
		&models.FailureReport{},

		// Планирование занятости
		&models.Operation{},

		// Уведомления
		&models.NotificationTemplate{},
		&models.NotificationLog{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// CleanupTestDB очищает тестовую базу данных
func CleanupTestDB(db *gorm.DB) {
	if db != nil {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// CreateTestUser создает тестового пользователя с заданной ролью
func CreateTestUser(db *gorm.DB, username, role string) *models.User {
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "Тест",
		LastName:  "Пользователь",
		Role:      role,
		IsActive:  true,
	}
	if err := user.SetPassword("test-password-123"); err != nil {
		log.Printf("Failed to hash test password: %v", err)
		return nil
	}

	if err := db.Create(user).Error; err != nil {
		log.Printf("Failed to create test user: %v", err)
		return nil
	}

	return user
}

// CreateTestAsset создает тестовый актив с системой
func CreateTestAsset(db *gorm.DB, name, area string) (*models.Asset, *models.System) {
	asset := &models.Asset{
		Name:     name,
		Area:     area,
		IsActive: true,
	}
	if err := db.Create(asset).Error; err != nil {
		log.Printf("Failed to create test asset: %v", err)
		return nil, nil
	}

	system := &models.System{
		Name:    "Двигательная установка",
		AssetID: asset.ID,
		State:   models.SystemStateOperational,
	}
	if err := db.Create(system).Error; err != nil {
		log.Printf("Failed to create test system: %v", err)
		return asset, nil
	}

	return asset, system
}

// CreateTestEquipment создает тестовое вращающееся оборудование в системе
func CreateTestEquipment(db *gorm.DB, systemID uint, code string) *models.Equipment {
	equipment := &models.Equipment{
		Code:     code,
		Name:     "Главный двигатель",
		Type:     models.EquipmentTypeRotating,
		SystemID: &systemID,
	}
	if err := db.Create(equipment).Error; err != nil {
		log.Printf("Failed to create test equipment: %v", err)
		return nil
	}

	return equipment
}

// CreateTestRoute создает тестовый маршрут обслуживания
func CreateTestRoute(db *gorm.DB, systemID uint, name, controlMode string, frequency int, interventionDate time.Time) *models.MaintenanceRoute {
	route := &models.MaintenanceRoute{
		Name:             name,
		ControlMode:      controlMode,
		Frequency:        frequency,
		InterventionDate: models.TruncateToDay(interventionDate),
		SystemID:         systemID,
	}
	if err := db.Create(route).Error; err != nil {
		log.Printf("Failed to create test route: %v", err)
		return nil
	}

	return route
}
