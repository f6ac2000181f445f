package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// DatabaseIndex представляет индекс базы данных
type DatabaseIndex struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
	Type    string // btree, gin
}

// PerformanceIndexes индексы для оптимизации производительности
var PerformanceIndexes = []DatabaseIndex{
	// Журнал наработки: выборки ленты по оборудованию и дате
	{
		Name:    "idx_hour_reports_equipment_date_desc",
		Table:   "hour_reports",
		Columns: []string{"equipment_id", "report_date DESC"},
		Type:    "btree",
	},

	// Маршруты: выборки по системе и режиму контроля
	{
		Name:    "idx_routes_system_control",
		Table:   "maintenance_routes",
		Columns: []string{"system_id", "control_mode"},
		Type:    "btree",
	},
	{
		Name:    "idx_routes_work_order",
		Table:   "maintenance_routes",
		Columns: []string{"work_order_id"},
		Type:    "btree",
	},

	// Наряды: дашборд считает по месяцу, виду ТО и состоянию
	{
		Name:    "idx_work_orders_created_type",
		Table:   "work_orders",
		Columns: []string{"created_at", "maintenance_type"},
		Type:    "btree",
	},
	{
		Name:    "idx_work_orders_system_state",
		Table:   "work_orders",
		Columns: []string{"system_id", "state"},
		Type:    "btree",
	},

	// Задачи: списки по наряду и исполнителю
	{
		Name:    "idx_tasks_order_finished",
		Table:   "tasks",
		Columns: []string{"work_order_id", "finished"},
		Type:    "btree",
	},
	{
		Name:    "idx_tasks_responsible",
		Table:   "tasks",
		Columns: []string{"responsible_id", "finished"},
		Type:    "btree",
	},

	// Отчеты об отказах: фильтры по закрытости и критичности
	{
		Name:    "idx_failure_reports_closed_critical",
		Table:   "failure_reports",
		Columns: []string{"closed", "is_critical"},
		Type:    "btree",
	},

	// Операции: проверка пересечения интервалов по активу
	{
		Name:    "idx_operations_asset_dates",
		Table:   "operations",
		Columns: []string{"asset_id", "start_date", "end_date"},
		Type:    "btree",
	},

	// Полнотекстовый поиск по оборудованию
	{
		Name:    "idx_equipment_fulltext",
		Table:   "equipment",
		Columns: []string{"name", "features"},
		Type:    "gin",
	},
}

// CreatePerformanceIndexes создает индексы для оптимизации производительности
func CreatePerformanceIndexes(db *gorm.DB) error {
	log.Printf("Creating performance indexes...")

	for _, index := range PerformanceIndexes {
		if err := CreateIndex(db, index); err != nil {
			log.Printf("Failed to create index %s: %v", index.Name, err)
			// Продолжаем создание других индексов даже если один упал
			continue
		}
		log.Printf("Created index: %s", index.Name)
	}

	log.Printf("Performance indexes creation completed")
	return nil
}

// CreateIndex создает отдельный индекс
func CreateIndex(db *gorm.DB, index DatabaseIndex) error {
	var sql string

	switch index.Type {
	case "gin":
		// Для полнотекстового поиска
		if len(index.Columns) == 2 {
			sql = fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (to_tsvector('russian', COALESCE(%s, '') || ' ' || COALESCE(%s, '')))",
				index.Name, index.Table, index.Columns[0], index.Columns[1],
			)
		} else {
			sql = fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (to_tsvector('russian', %s))",
				index.Name, index.Table, index.Columns[0],
			)
		}
	default:
		// Обычные B-tree индексы
		uniqueStr := ""
		if index.Unique {
			uniqueStr = "UNIQUE "
		}

		columns := ""
		for i, col := range index.Columns {
			if i > 0 {
				columns += ", "
			}
			columns += col
		}

		sql = fmt.Sprintf(
			"CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
			uniqueStr, index.Name, index.Table, columns,
		)
	}

	return db.Exec(sql).Error
}

// DropIndex удаляет индекс
func DropIndex(db *gorm.DB, indexName string) error {
	sql := fmt.Sprintf("DROP INDEX IF EXISTS %s", indexName)
	return db.Exec(sql).Error
}

// OptimizeDatabase выполняет оптимизацию базы данных
func OptimizeDatabase(db *gorm.DB) error {
	log.Printf("Starting database optimization...")

	// Обновляем статистику
	if err := db.Exec("ANALYZE").Error; err != nil {
		return fmt.Errorf("failed to analyze database: %v", err)
	}

	// Очищаем мертвые строки
	if err := db.Exec("VACUUM").Error; err != nil {
		return fmt.Errorf("failed to vacuum database: %v", err)
	}

	log.Printf("Database optimization completed")
	return nil
}
