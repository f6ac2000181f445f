package services

import (
	"fmt"
	"log"

	"backend_fleetmaint/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SchedulerService запускает периодические задачи: ежедневную сводку
// по обслуживанию и повторную отправку уведомлений
type SchedulerService struct {
	db            *gorm.DB
	routes        *RouteService
	notifications *NotificationService

	cron    *cron.Cron
	entries map[string]cron.EntryID
}

// NewSchedulerService создает новый экземпляр SchedulerService
func NewSchedulerService(db *gorm.DB, routes *RouteService, notifications *NotificationService) *SchedulerService {
	return &SchedulerService{
		db:            db,
		routes:        routes,
		notifications: notifications,
		cron:          cron.New(cron.WithSeconds()),
		entries:       make(map[string]cron.EntryID),
	}
}

// Start регистрирует задачи и запускает планировщик
func (ss *SchedulerService) Start() error {
	// Ежедневная сводка проблемных маршрутов в 06:00
	id, err := ss.cron.AddFunc("0 0 6 * * *", func() {
		if err := ss.RunMaintenanceDigest(); err != nil {
			log.Printf("❌ Ошибка рассылки сводки по обслуживанию: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("не удалось запланировать сводку по обслуживанию: %w", err)
	}
	ss.entries["maintenance_digest"] = id

	// Повторная отправка отложенных уведомлений каждые 5 минут
	id, err = ss.cron.AddFunc("0 */5 * * * *", func() {
		if err := ss.notifications.ProcessRetryNotifications(); err != nil {
			log.Printf("❌ Ошибка повторной отправки уведомлений: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("не удалось запланировать повтор уведомлений: %w", err)
	}
	ss.entries["notification_retry"] = id

	ss.cron.Start()
	log.Println("🚀 Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик
func (ss *SchedulerService) Stop() {
	if ss.cron != nil {
		ss.cron.Stop()
		log.Println("⏹️ Планировщик задач остановлен")
	}
}

// RunMaintenanceDigest рассылает руководителям активов сводку маршрутов
// в статусах «требует внимания» и «просрочен»
func (ss *SchedulerService) RunMaintenanceDigest() error {
	due, err := ss.routes.DueRoutesBySupervisor()
	if err != nil {
		return fmt.Errorf("не удалось собрать проблемные маршруты: %w", err)
	}

	for supervisorID, routes := range due {
		var supervisor models.User
		if err := ss.db.First(&supervisor, supervisorID).Error; err != nil {
			log.Printf("⚠️  Руководитель %d не найден, сводка пропущена", supervisorID)
			continue
		}
		if supervisor.Email == "" {
			continue
		}

		lines := make([]string, 0, len(routes))
		for _, r := range routes {
			assetName := ""
			if r.System != nil && r.System.Asset != nil {
				assetName = r.System.Asset.Name
			}
			lines = append(lines, fmt.Sprintf("%s — %s: %s (осталось %d%%)",
				assetName, r.Name,
				models.GetRouteStatusDisplayName(r.Indicators.MaintenanceStatus),
				r.Indicators.PercentageRemaining))
		}

		if err := ss.notifications.SendMaintenanceDueDigest(&supervisor, lines); err != nil {
			log.Printf("❌ Не удалось отправить сводку руководителю %s: %v", supervisor.Username, err)
		}
	}

	return nil
}
