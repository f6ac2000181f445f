package services

import (
	"strings"
	"testing"
	"time"

	"backend_fleetmaint/models"
	"backend_fleetmaint/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReportTest(t *testing.T) (*ReportService, *gorm.DB) {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })
	return NewReportService(db), db
}

func TestGenerateWorkOrderPDF(t *testing.T) {
	rs, _ := setupReportTest(t)

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	order := &models.WorkOrder{
		Description:     "Плановое обслуживание главного двигателя",
		State:           models.WorkOrderStateInExecution,
		MaintenanceType: models.MaintenanceTypePreventive,
		CreatedAt:       start,
		System: &models.System{
			Name:  "Двигательная установка",
			Asset: &models.Asset{Name: "Буксир «Нева»"},
		},
		Tasks: []models.Task{
			{Description: "Заменить масло", StartDate: &start},
			{Description: "Проверить форсунки", Finished: true},
		},
	}
	order.ID = 42

	data, fileName, err := rs.GenerateWorkOrderPDF(order)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data[:4]), "%PDF"), "Результат должен быть PDF")
	assert.Contains(t, fileName, "work_order_42_")
	assert.True(t, strings.HasSuffix(fileName, ".pdf"))
}

func TestCollectAssetLedger_RotatingOnly(t *testing.T) {
	rs, db := setupReportTest(t)

	asset, system := testutils.CreateTestAsset(db, "Буксир «Дон»", models.AssetAreaTugboat)
	require.NotNil(t, system)

	rotating := testutils.CreateTestEquipment(db, system.ID, "ME-400")
	nonRotating := models.Equipment{
		Code:     "HULL-1",
		Name:     "Корпусные конструкции",
		Type:     models.EquipmentTypeNonRotating,
		SystemID: &system.ID,
	}
	require.NoError(t, db.Create(&nonRotating).Error)

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	us := NewUsageService(db)
	_, _, err := us.SubmitHourReport(rotating.ID, day, 8, nil)
	require.NoError(t, err)
	_, _, err = us.SubmitHourReport(nonRotating.ID, day, 4, nil)
	require.NoError(t, err)

	rows, err := rs.CollectAssetLedger(asset.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "В журнал попадает только вращающееся оборудование")
	assert.Equal(t, "ME-400", rows[0].EquipmentCode)
	assert.Equal(t, 8, rows[0].Hours)
}

func TestGenerateAssetLedgerExports(t *testing.T) {
	rs, _ := setupReportTest(t)

	asset := &models.Asset{Name: "Буксир «Обь»"}
	asset.ID = 3
	rows := []AssetLedgerRow{
		{
			EquipmentCode: "ME-500",
			EquipmentName: "Главный двигатель",
			ReportDate:    time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			Hours:         8,
			Reporter:      "Иван Петров",
		},
	}

	xlsxData, xlsxName, err := rs.GenerateAssetLedgerExcel(asset, rows)
	require.NoError(t, err)
	assert.NotEmpty(t, xlsxData)
	assert.True(t, strings.HasSuffix(xlsxName, ".xlsx"))

	csvData, csvName, err := rs.GenerateAssetLedgerCSV(asset, rows)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(csvName, ".csv"))

	csvText := string(csvData)
	assert.Contains(t, csvText, "equipment_code")
	assert.Contains(t, csvText, "ME-500")
	assert.Contains(t, csvText, "2025-05-01")
}
