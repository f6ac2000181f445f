package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"backend_fleetmaint/models"
	"backend_fleetmaint/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOperationsTest(t *testing.T) (*gorm.DB, *gin.Engine, *models.Asset) {
	db := setupAPITest(t)

	asset, system := testutils.CreateTestAsset(db, "Буксир «Вега»", models.AssetAreaTugboat)
	require.NotNil(t, asset)
	require.NotNil(t, system)

	chief := testutils.CreateTestUser(db, "chief", models.RoleSupervisor)
	require.NotNil(t, chief)

	r := gin.New()
	auth := authAs(chief)
	r.POST("/api/operations", auth, CreateOperation)
	r.PUT("/api/operations/:id", auth, UpdateOperation)

	return db, r, asset
}

func operationBody(assetID uint, project, start, end string) gin.H {
	return gin.H{
		"project_name": project,
		"start_date":   start,
		"end_date":     end,
		"asset_id":     assetID,
	}
}

func TestCreateOperation_RejectsOverlap(t *testing.T) {
	_, r, asset := setupOperationsTest(t)

	w := performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Буксировка платформы", "2025-06-10", "2025-06-20"))
	require.Equal(t, 201, w.Code)

	// Совпадение крайних дат — тоже пересечение
	w = performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Дежурство в порту", "2025-06-20", "2025-06-25"))
	require.Equal(t, 409, w.Code)

	var resp struct {
		Conflict struct {
			ProjectName string `json:"project_name"`
			StartDate   string `json:"start_date"`
			EndDate     string `json:"end_date"`
		} `json:"conflict"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Буксировка платформы", resp.Conflict.ProjectName)
	assert.Equal(t, "2025-06-10", resp.Conflict.StartDate)
	assert.Equal(t, "2025-06-20", resp.Conflict.EndDate)

	// Интервал внутри существующего отклоняется так же
	w = performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Снабжение", "2025-06-12", "2025-06-15"))
	assert.Equal(t, 409, w.Code)
}

func TestCreateOperation_AcceptsAdjacentWindows(t *testing.T) {
	db, r, asset := setupOperationsTest(t)

	w := performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Буксировка платформы", "2025-06-10", "2025-06-20"))
	require.Equal(t, 201, w.Code)

	// Смежные окна по обе стороны не пересекаются
	w = performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Переход в порт", "2025-06-01", "2025-06-09"))
	assert.Equal(t, 201, w.Code)

	w = performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Дежурство в порту", "2025-06-21", "2025-06-30"))
	assert.Equal(t, 201, w.Code)

	var total int64
	require.NoError(t, db.Model(&models.Operation{}).Count(&total).Error)
	assert.Equal(t, int64(3), total)
}

func TestCreateOperation_DifferentAssetsDoNotConflict(t *testing.T) {
	db, r, asset := setupOperationsTest(t)

	other, _ := testutils.CreateTestAsset(db, "Буксир «Альтаир»", models.AssetAreaTugboat)
	require.NotNil(t, other)

	w := performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Буксировка платформы", "2025-06-10", "2025-06-20"))
	require.Equal(t, 201, w.Code)

	w = performJSON(r, http.MethodPost, "/api/operations",
		operationBody(other.ID, "Буксировка баржи", "2025-06-10", "2025-06-20"))
	assert.Equal(t, 201, w.Code, "Занятость проверяется в пределах одного актива")
}

func TestUpdateOperation_ExcludesSelfFromConflictCheck(t *testing.T) {
	db, r, asset := setupOperationsTest(t)

	w := performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Буксировка платформы", "2025-06-10", "2025-06-20"))
	require.Equal(t, 201, w.Code)

	var operation models.Operation
	require.NoError(t, db.Order("id DESC").First(&operation).Error)

	// Сдвиг интервала поверх самого себя — не конфликт
	w = performJSON(r, http.MethodPut, fmt.Sprintf("/api/operations/%d", operation.ID),
		operationBody(asset.ID, "Буксировка платформы", "2025-06-12", "2025-06-22"))
	require.Equal(t, 200, w.Code)

	var updated models.Operation
	require.NoError(t, db.First(&updated, operation.ID).Error)
	assert.Equal(t, "2025-06-12", updated.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2025-06-22", updated.EndDate.Format("2006-01-02"))
	assert.Equal(t, 11, updated.Duration, "Длительность проставляется при чтении")
}

func TestUpdateOperation_RejectsOverlapWithOther(t *testing.T) {
	db, r, asset := setupOperationsTest(t)

	w := performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Буксировка платформы", "2025-06-10", "2025-06-20"))
	require.Equal(t, 201, w.Code)

	w = performJSON(r, http.MethodPost, "/api/operations",
		operationBody(asset.ID, "Дежурство в порту", "2025-06-25", "2025-06-30"))
	require.Equal(t, 201, w.Code)

	var first models.Operation
	require.NoError(t, db.Order("id ASC").First(&first).Error)

	// Расширение первой операции до границы второй отклоняется
	w = performJSON(r, http.MethodPut, fmt.Sprintf("/api/operations/%d", first.ID),
		operationBody(asset.ID, "Буксировка платформы", "2025-06-10", "2025-06-25"))
	assert.Equal(t, 409, w.Code)
}
