package services

import (
	"errors"
	"fmt"
	"time"

	"backend_fleetmaint/models"

	"gorm.io/gorm"
)

// Ошибки журнала наработки
var (
	ErrInvalidHours = errors.New("наработка за сутки должна быть в пределах от 0 до 24 часов")
)

// Количество последних отчетов для расчета среднесуточной наработки
const avgReportsWindow = 10

// UsageService ведет журнал наработки оборудования и поддерживает
// производные показатели: счетчик моточасов и среднесуточный темп
type UsageService struct {
	db *gorm.DB
}

// NewUsageService создает новый экземпляр UsageService
func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

// SubmitHourReport регистрирует суточный отчет о наработке.
// На пару (оборудование, дата) допускается одна запись: повторная подача
// обновляет часы существующей. Возвращает отчет и признак создания новой записи.
func (us *UsageService) SubmitHourReport(equipmentID uint, reportDate time.Time, hours int, reporterID *uint) (*models.HourReport, bool, error) {
	if !models.IsValidHours(hours) {
		return nil, false, ErrInvalidHours
	}

	var equipment models.Equipment
	if err := us.db.First(&equipment, equipmentID).Error; err != nil {
		return nil, false, fmt.Errorf("оборудование не найдено: %w", err)
	}

	day := models.TruncateToDay(reportDate)

	var report models.HourReport
	err := us.db.Where("equipment_id = ? AND report_date = ?", equipmentID, day).First(&report).Error

	created := false
	switch {
	case err == nil:
		// Отчет за эту дату уже есть: обновляем часы на месте
		report.Hours = hours
		report.ReporterID = reporterID
		if err := us.db.Save(&report).Error; err != nil {
			return nil, false, fmt.Errorf("не удалось обновить отчет о наработке: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		report = models.HourReport{
			EquipmentID: equipmentID,
			ReportDate:  day,
			Hours:       hours,
			ReporterID:  reporterID,
		}
		if err := us.db.Create(&report).Error; err != nil {
			return nil, false, fmt.Errorf("не удалось создать отчет о наработке: %w", err)
		}
		created = true
	default:
		return nil, false, err
	}

	if err := us.RecalculateEquipmentUsage(equipmentID); err != nil {
		return nil, false, err
	}

	return &report, created, nil
}

// UpdateHourReport изменяет часы существующего отчета
func (us *UsageService) UpdateHourReport(reportID uint, hours int, reporterID *uint) (*models.HourReport, error) {
	if !models.IsValidHours(hours) {
		return nil, ErrInvalidHours
	}

	var report models.HourReport
	if err := us.db.First(&report, reportID).Error; err != nil {
		return nil, fmt.Errorf("отчет о наработке не найден: %w", err)
	}

	report.Hours = hours
	if reporterID != nil {
		report.ReporterID = reporterID
	}
	if err := us.db.Save(&report).Error; err != nil {
		return nil, fmt.Errorf("не удалось обновить отчет о наработке: %w", err)
	}

	if err := us.RecalculateEquipmentUsage(report.EquipmentID); err != nil {
		return nil, err
	}

	return &report, nil
}

// DeleteHourReport удаляет отчет и пересчитывает показатели оборудования
func (us *UsageService) DeleteHourReport(reportID uint) error {
	var report models.HourReport
	if err := us.db.First(&report, reportID).Error; err != nil {
		return fmt.Errorf("отчет о наработке не найден: %w", err)
	}

	if err := us.db.Delete(&report).Error; err != nil {
		return fmt.Errorf("не удалось удалить отчет о наработке: %w", err)
	}

	return us.RecalculateEquipmentUsage(report.EquipmentID)
}

// RecalculateEquipmentUsage пересчитывает счетчик моточасов и среднесуточную
// наработку оборудования по журналу отчетов
func (us *UsageService) RecalculateEquipmentUsage(equipmentID uint) error {
	var equipment models.Equipment
	if err := us.db.First(&equipment, equipmentID).Error; err != nil {
		return fmt.Errorf("оборудование не найдено: %w", err)
	}

	// Счетчик: начальная наработка плюс сумма всех отчетов
	var totalHours int64
	if err := us.db.Model(&models.HourReport{}).
		Where("equipment_id = ?", equipmentID).
		Select("COALESCE(SUM(hours), 0)").
		Scan(&totalHours).Error; err != nil {
		return fmt.Errorf("не удалось просуммировать наработку: %w", err)
	}

	// Темп: среднее по последним отчетам, 0 при пустом журнале
	var recent []models.HourReport
	if err := us.db.Where("equipment_id = ?", equipmentID).
		Order("report_date DESC").
		Limit(avgReportsWindow).
		Find(&recent).Error; err != nil {
		return fmt.Errorf("не удалось получить последние отчеты: %w", err)
	}

	avg := 0.0
	if len(recent) > 0 {
		sum := 0
		for _, r := range recent {
			sum += r.Hours
		}
		avg = float64(sum) / float64(len(recent))
	}

	return us.db.Model(&equipment).Updates(map[string]interface{}{
		"horometer":       equipment.InitialHours + int(totalHours),
		"avg_daily_hours": avg,
	}).Error
}

// ConsumedHoursSince возвращает наработку за интервал (since, until]:
// день последнего вмешательства к новому циклу не относится
func (us *UsageService) ConsumedHoursSince(equipmentID uint, since, until time.Time) (int, error) {
	var consumed int64
	err := us.db.Model(&models.HourReport{}).
		Where("equipment_id = ? AND report_date > ? AND report_date <= ?",
			equipmentID, models.TruncateToDay(since), models.TruncateToDay(until)).
		Select("COALESCE(SUM(hours), 0)").
		Scan(&consumed).Error
	if err != nil {
		return 0, fmt.Errorf("не удалось подсчитать наработку за период: %w", err)
	}
	return int(consumed), nil
}

// GetEquipmentLedger возвращает отчеты оборудования, новые впереди
func (us *UsageService) GetEquipmentLedger(equipmentID uint, limit, offset int) ([]models.HourReport, int64, error) {
	var total int64
	if err := us.db.Model(&models.HourReport{}).
		Where("equipment_id = ?", equipmentID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.HourReport
	query := us.db.Preload("Reporter").
		Where("equipment_id = ?", equipmentID).
		Order("report_date DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}
