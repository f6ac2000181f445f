package services

import (
	"testing"
	"time"

	"backend_fleetmaint/models"
	"backend_fleetmaint/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUsageTest(t *testing.T) (*UsageService, *models.Equipment) {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	_, system := testutils.CreateTestAsset(db, "Буксир «Восток»", models.AssetAreaTugboat)
	require.NotNil(t, system)

	equipment := testutils.CreateTestEquipment(db, system.ID, "ME-100")
	require.NotNil(t, equipment)

	return NewUsageService(db), equipment
}

func TestSubmitHourReport_CreatesAndRecalculates(t *testing.T) {
	us, equipment := setupUsageTest(t)

	day := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	report, created, err := us.SubmitHourReport(equipment.ID, day, 8, nil)
	require.NoError(t, err)
	assert.True(t, created, "Первая подача должна создавать запись")
	assert.Equal(t, 8, report.Hours)

	// Время в дате отчета обнуляется
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), report.ReportDate)

	var updated models.Equipment
	require.NoError(t, us.db.First(&updated, equipment.ID).Error)
	assert.Equal(t, 8, updated.Horometer)
	assert.Equal(t, 8.0, updated.AvgDailyHours)
}

func TestSubmitHourReport_UpsertSameDay(t *testing.T) {
	us, equipment := setupUsageTest(t)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	_, created, err := us.SubmitHourReport(equipment.ID, day, 8, nil)
	require.NoError(t, err)
	assert.True(t, created)

	// Повторная подача за ту же дату обновляет часы, не плодя записи
	report, created, err := us.SubmitHourReport(equipment.ID, day, 12, nil)
	require.NoError(t, err)
	assert.False(t, created, "Повторная подача не должна создавать новую запись")
	assert.Equal(t, 12, report.Hours)

	var count int64
	us.db.Model(&models.HourReport{}).Where("equipment_id = ?", equipment.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	var updated models.Equipment
	require.NoError(t, us.db.First(&updated, equipment.ID).Error)
	assert.Equal(t, 12, updated.Horometer)
}

func TestSubmitHourReport_RejectsInvalidHours(t *testing.T) {
	us, equipment := setupUsageTest(t)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, hours := range []int{-1, 25, 100} {
		_, _, err := us.SubmitHourReport(equipment.ID, day, hours, nil)
		assert.ErrorIs(t, err, ErrInvalidHours, "Часы %d должны отклоняться", hours)
	}

	// Граничные значения допустимы
	for i, hours := range []int{0, 24} {
		_, _, err := us.SubmitHourReport(equipment.ID, day.AddDate(0, 0, i), hours, nil)
		assert.NoError(t, err, "Часы %d должны приниматься", hours)
	}
}

func TestRecalculateEquipmentUsage_HorometerInvariant(t *testing.T) {
	us, equipment := setupUsageTest(t)

	// Начальная наработка учитывается в счетчике
	require.NoError(t, us.db.Model(equipment).Update("initial_hours", 500).Error)

	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	total := 0
	for i := 0; i < 15; i++ {
		hours := i % 10
		_, _, err := us.SubmitHourReport(equipment.ID, day.AddDate(0, 0, i), hours, nil)
		require.NoError(t, err)
		total += hours
	}

	var updated models.Equipment
	require.NoError(t, us.db.First(&updated, equipment.ID).Error)
	assert.Equal(t, 500+total, updated.Horometer, "Счетчик = начальная наработка + сумма отчетов")
}

func TestRecalculateEquipmentUsage_AvgOverRecentWindow(t *testing.T) {
	us, equipment := setupUsageTest(t)

	// 12 отчетов: первые два (по 24 часа) выпадают из окна последних 10
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	hours := []int{24, 24, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}
	for i, h := range hours {
		_, _, err := us.SubmitHourReport(equipment.ID, day.AddDate(0, 0, i), h, nil)
		require.NoError(t, err)
	}

	var updated models.Equipment
	require.NoError(t, us.db.First(&updated, equipment.ID).Error)
	assert.Equal(t, 2.0, updated.AvgDailyHours, "Среднее считается по последним 10 отчетам")
}

func TestRecalculateEquipmentUsage_EmptyLedger(t *testing.T) {
	us, equipment := setupUsageTest(t)

	require.NoError(t, us.RecalculateEquipmentUsage(equipment.ID))

	var updated models.Equipment
	require.NoError(t, us.db.First(&updated, equipment.ID).Error)
	assert.Equal(t, 0.0, updated.AvgDailyHours, "Пустой журнал дает нулевой темп")
	assert.Equal(t, equipment.InitialHours, updated.Horometer)
}

func TestConsumedHoursSince_ExclusiveStart(t *testing.T) {
	us, equipment := setupUsageTest(t)

	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, h := range []int{5, 6, 7, 8} {
		_, _, err := us.SubmitHourReport(equipment.ID, day.AddDate(0, 0, i), h, nil)
		require.NoError(t, err)
	}

	// День вмешательства (1 февраля) в новый цикл не входит
	consumed, err := us.ConsumedHoursSince(equipment.ID, day, day.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 6+7+8, consumed)
}

func TestDeleteHourReport_Recalculates(t *testing.T) {
	us, equipment := setupUsageTest(t)

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	report, _, err := us.SubmitHourReport(equipment.ID, day, 10, nil)
	require.NoError(t, err)
	_, _, err = us.SubmitHourReport(equipment.ID, day.AddDate(0, 0, 1), 6, nil)
	require.NoError(t, err)

	require.NoError(t, us.DeleteHourReport(report.ID))

	var updated models.Equipment
	require.NoError(t, us.db.First(&updated, equipment.ID).Error)
	assert.Equal(t, 6, updated.Horometer)
	assert.Equal(t, 6.0, updated.AvgDailyHours)
}
