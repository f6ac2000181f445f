package testutils

import (
	"testing"
	"time"

	"backend_fleetmaint/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err, "Should setup test database without error")
	require.NotNil(t, db, "Database should not be nil")

	// Проверяем, что таблицы созданы
	var tableCount int64
	err = db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&tableCount).Error
	require.NoError(t, err, "Should be able to query sqlite_master")
	assert.Greater(t, tableCount, int64(0), "Should have created some tables")

	// Очищаем
	CleanupTestDB(db)
}

func TestCreateTestUser(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	user := CreateTestUser(db, "testuser", models.RoleSupervisor)
	require.NotNil(t, user, "Should create test user")
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "testuser@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.True(t, user.CheckPassword("test-password-123"))
}

func TestCreateTestAsset(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	asset, system := CreateTestAsset(db, "Буксир «Север»", models.AssetAreaTugboat)
	require.NotNil(t, asset, "Should create test asset")
	require.NotNil(t, system, "Should create test system")
	assert.Equal(t, asset.ID, system.AssetID)
	assert.Equal(t, models.SystemStateOperational, system.State)
}

func TestCreateTestEquipmentAndRoute(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	_, system := CreateTestAsset(db, "Буксир «Юг»", models.AssetAreaTugboat)
	require.NotNil(t, system)

	equipment := CreateTestEquipment(db, system.ID, "ME-001")
	require.NotNil(t, equipment, "Should create test equipment")
	assert.True(t, equipment.IsRotating())

	route := CreateTestRoute(db, system.ID, "ТО-250", models.RouteControlDays, 30, time.Now())
	require.NotNil(t, route, "Should create test route")
	assert.Equal(t, system.ID, route.SystemID)
}
