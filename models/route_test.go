package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeIndicators_DaysMode(t *testing.T) {
	intervention := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	route := MaintenanceRoute{
		ControlMode:      RouteControlDays,
		Frequency:        30,
		InterventionDate: intervention,
	}

	ind := route.ComputeIndicators(0, 0, today)

	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), ind.NextDate,
		"Следующая дата = вмешательство + периодичность")
	assert.Equal(t, 20, ind.DaysRemaining)
	assert.Equal(t, 67, ind.PercentageRemaining, "round(100*20/30)")
}

func TestComputeIndicators_DaysMode_Overdue(t *testing.T) {
	route := MaintenanceRoute{
		ControlMode:      RouteControlDays,
		Frequency:        10,
		InterventionDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	ind := route.ComputeIndicators(0, 0, time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, -10, ind.DaysRemaining)
	assert.Equal(t, -100, ind.PercentageRemaining, "Процент может быть отрицательным")
}

func TestComputeIndicators_DaysMode_NonUTCClock(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	route := MaintenanceRoute{
		ControlMode:      RouteControlDays,
		Frequency:        10,
		InterventionDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	// Часы сервера в другом поясе не смещают календарную разницу:
	// сравниваются дни, а не моменты времени
	ind := route.ComputeIndicators(0, 0, time.Date(2025, 1, 21, 0, 0, 0, 0, msk))
	assert.Equal(t, -10, ind.DaysRemaining)
	assert.Equal(t, -100, ind.PercentageRemaining)

	ind = route.ComputeIndicators(0, 0, time.Date(2025, 1, 5, 14, 30, 0, 0, msk))
	assert.Equal(t, 6, ind.DaysRemaining)
}

func TestComputeIndicators_HoursMode(t *testing.T) {
	equipmentID := uint(7)
	route := MaintenanceRoute{
		ControlMode: RouteControlHours,
		Frequency:   250,
		EquipmentID: &equipmentID,
	}
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// Израсходовано 100 из 250 моточасов при темпе 5 ч/сутки
	ind := route.ComputeIndicators(100, 5.0, today)

	assert.Equal(t, 30, ind.DaysRemaining, "(250-100)/5")
	assert.Equal(t, today.AddDate(0, 0, 30), ind.NextDate)
	assert.Equal(t, 60, ind.PercentageRemaining, "round(100*150/250)")
	assert.Equal(t, 100, ind.ConsumedHours)
}

func TestComputeIndicators_HoursMode_ZeroAvgFallback(t *testing.T) {
	equipmentID := uint(7)
	route := MaintenanceRoute{
		ControlMode: RouteControlHours,
		Frequency:   100,
		EquipmentID: &equipmentID,
	}
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// Нулевой темп не приводит к делению на ноль: делитель равен 1
	ind := route.ComputeIndicators(40, 0, today)
	assert.Equal(t, 60, ind.DaysRemaining)

	// Отсутствие оборудования — тот же предохранитель
	route.EquipmentID = nil
	ind = route.ComputeIndicators(40, 9.5, today)
	assert.Equal(t, 60, ind.DaysRemaining)
}

func TestStatusFor_PendingOrderWins(t *testing.T) {
	route := MaintenanceRoute{}

	// Без наряда статус всегда pending_order, даже при просрочке
	for _, pct := range []int{-50, 0, 5, 10, 50, 100, 150} {
		assert.Equal(t, RouteStatusPendingOrder, route.statusFor(pct),
			"Без наряда при %d%% статус должен быть pending_order", pct)
	}
}

func TestStatusFor_OrderInExecution(t *testing.T) {
	orderID := uint(1)
	route := MaintenanceRoute{
		WorkOrderID: &orderID,
		WorkOrder:   &WorkOrder{State: WorkOrderStateInExecution},
	}

	// Наряд в работе перекрывает пороговые ветки
	for _, pct := range []int{-10, 50, 100} {
		assert.Equal(t, RouteStatusAttention, route.statusFor(pct))
	}
}

func TestStatusFor_PercentageThresholds(t *testing.T) {
	orderID := uint(1)
	route := MaintenanceRoute{
		WorkOrderID: &orderID,
		WorkOrder:   &WorkOrder{State: WorkOrderStateFinished},
	}

	cases := []struct {
		pct      int
		expected string
	}{
		{100, RouteStatusOK},
		{25, RouteStatusOK},
		{24, RouteStatusAttention},
		{5, RouteStatusAttention},
		{4, RouteStatusOverdue},
		{0, RouteStatusOverdue},
		{-20, RouteStatusOverdue},
		{101, RouteStatusOverdue}, // выход за 100% сверху тоже вне нормы
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, route.statusFor(tc.pct), "pct=%d", tc.pct)
	}
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 67, roundPercent(20, 30))
	assert.Equal(t, 33, roundPercent(10, 30))
	assert.Equal(t, -100, roundPercent(-10, 10))
	assert.Equal(t, 0, roundPercent(5, 0), "Нулевая периодичность не роняет расчет")
}

func TestTruncateToDay(t *testing.T) {
	ts := time.Date(2025, 6, 15, 23, 59, 59, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), TruncateToDay(ts))
}
