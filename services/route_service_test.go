package services

import (
	"testing"
	"time"

	"backend_fleetmaint/models"
	"backend_fleetmaint/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRouteTest(t *testing.T) (*RouteService, *gorm.DB, *models.System, *models.Equipment) {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	_, system := testutils.CreateTestAsset(db, "Буксир «Запад»", models.AssetAreaTugboat)
	require.NotNil(t, system)
	equipment := testutils.CreateTestEquipment(db, system.ID, "ME-200")
	require.NotNil(t, equipment)

	rs := NewRouteService(db)
	rs.Now = func() time.Time {
		return time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)
	}

	return rs, db, system, equipment
}

func TestValidateRoute(t *testing.T) {
	rs, _, system, equipment := setupRouteTest(t)

	valid := models.MaintenanceRoute{
		Name:        "ТО-30",
		ControlMode: models.RouteControlDays,
		Frequency:   30,
		SystemID:    system.ID,
	}
	assert.NoError(t, rs.ValidateRoute(&valid))

	// Нулевая и отрицательная периодичность отклоняются
	invalid := valid
	invalid.Frequency = 0
	assert.ErrorIs(t, rs.ValidateRoute(&invalid), ErrInvalidFrequency)
	invalid.Frequency = -5
	assert.ErrorIs(t, rs.ValidateRoute(&invalid), ErrInvalidFrequency)

	// Контроль по моточасам без оборудования невозможен
	hoursRoute := valid
	hoursRoute.ControlMode = models.RouteControlHours
	assert.ErrorIs(t, rs.ValidateRoute(&hoursRoute), ErrEquipmentRequired)

	hoursRoute.EquipmentID = &equipment.ID
	assert.NoError(t, rs.ValidateRoute(&hoursRoute))

	unknownMode := valid
	unknownMode.ControlMode = "weeks"
	assert.Error(t, rs.ValidateRoute(&unknownMode))
}

func TestComputeIndicators_HoursModeWithLedger(t *testing.T) {
	rs, db, system, equipment := setupRouteTest(t)

	intervention := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	route := testutils.CreateTestRoute(db, system.ID, "ТО-250", models.RouteControlHours, 250, intervention)
	require.NotNil(t, route)
	require.NoError(t, db.Model(route).Update("equipment_id", equipment.ID).Error)
	route.EquipmentID = &equipment.ID

	// Журнал: 10 дней по 5 часов после вмешательства плюс отчет в день
	// вмешательства, который в расход цикла не входит
	us := NewUsageService(db)
	_, _, err := us.SubmitHourReport(equipment.ID, intervention, 20, nil)
	require.NoError(t, err)
	for i := 1; i <= 10; i++ {
		_, _, err := us.SubmitHourReport(equipment.ID, intervention.AddDate(0, 0, i), 5, nil)
		require.NoError(t, err)
	}

	ind, err := rs.ComputeIndicators(route)
	require.NoError(t, err)

	assert.Equal(t, 50, ind.ConsumedHours, "День вмешательства не входит в расход")
	assert.Equal(t, 80, ind.PercentageRemaining, "round(100*200/250)")
}

func TestListWithIndicators_FiltersByComputedStatus(t *testing.T) {
	rs, db, system, _ := setupRouteTest(t)

	// Маршрут без наряда и маршрут с завершенным нарядом в норме
	pending := testutils.CreateTestRoute(db, system.ID, "Без наряда", models.RouteControlDays, 30,
		time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, pending)

	ok := testutils.CreateTestRoute(db, system.ID, "В норме", models.RouteControlDays, 30,
		time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, ok)
	order := models.WorkOrder{
		Description: "Выполненное ТО",
		State:       models.WorkOrderStateFinished,
		SystemID:    system.ID,
	}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Model(ok).Update("work_order_id", order.ID).Error)

	pendingOnly, err := rs.ListWithIndicators(RouteFilter{Status: models.RouteStatusPendingOrder})
	require.NoError(t, err)
	require.Len(t, pendingOnly, 1)
	assert.Equal(t, pending.ID, pendingOnly[0].ID)

	okOnly, err := rs.ListWithIndicators(RouteFilter{Status: models.RouteStatusOK})
	require.NoError(t, err)
	require.Len(t, okOnly, 1)
	assert.Equal(t, ok.ID, okOnly[0].ID)
}

func TestListWithIndicators_AreaScope(t *testing.T) {
	rs, db, system, _ := setupRouteTest(t)

	_, divingSystem := testutils.CreateTestAsset(db, "Водолазный бот", models.AssetAreaDiving)
	require.NotNil(t, divingSystem)

	testutils.CreateTestRoute(db, system.ID, "Буксирный", models.RouteControlDays, 30,
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	testutils.CreateTestRoute(db, divingSystem.ID, "Водолазный", models.RouteControlDays, 30,
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

	// Водолаз видит только свою зону
	restricted, err := rs.ListWithIndicators(RouteFilter{Area: models.AssetAreaDiving})
	require.NoError(t, err)
	require.Len(t, restricted, 1)
	assert.Equal(t, "Водолазный", restricted[0].Name)

	// Техник водолазную зону не видит
	excluded, err := rs.ListWithIndicators(RouteFilter{ExcludeArea: models.AssetAreaDiving})
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, "Буксирный", excluded[0].Name)
}

func TestStatusSummary(t *testing.T) {
	rs, db, system, _ := setupRouteTest(t)

	testutils.CreateTestRoute(db, system.ID, "Первый", models.RouteControlDays, 30,
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	testutils.CreateTestRoute(db, system.ID, "Второй", models.RouteControlDays, 30,
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

	summary, err := rs.StatusSummary(RouteFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary[models.RouteStatusPendingOrder])
	assert.Equal(t, 0, summary[models.RouteStatusOK])
}

func TestDueRoutesBySupervisor(t *testing.T) {
	rs, db, system, _ := setupRouteTest(t)

	supervisor := testutils.CreateTestUser(db, "chief", models.RoleSupervisor)
	require.NotNil(t, supervisor)
	require.NoError(t, db.Model(&models.Asset{}).
		Where("id = ?", system.AssetID).
		Update("supervisor_id", supervisor.ID).Error)

	// Просроченный маршрут с завершенным нарядом
	route := testutils.CreateTestRoute(db, system.ID, "Просроченный", models.RouteControlDays, 10,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, route)
	order := models.WorkOrder{
		Description: "Старое ТО",
		State:       models.WorkOrderStateFinished,
		SystemID:    system.ID,
	}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Model(route).Update("work_order_id", order.ID).Error)

	due, err := rs.DueRoutesBySupervisor()
	require.NoError(t, err)
	require.Contains(t, due, supervisor.ID)
	require.Len(t, due[supervisor.ID], 1)
	assert.Equal(t, models.RouteStatusOverdue, due[supervisor.ID][0].Indicators.MaintenanceStatus)
}
