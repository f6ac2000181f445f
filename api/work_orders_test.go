package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend_fleetmaint/database"
	"backend_fleetmaint/models"
	"backend_fleetmaint/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupAPITest подменяет глобальное подключение на тестовую БД в памяти
func setupAPITest(t *testing.T) *gorm.DB {
	gin.SetMode(gin.TestMode)

	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return db
}

// authAs подставляет пользователя и его права в контекст запроса,
// как это делает RequireAuth после проверки токена
func authAs(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", user)
		c.Set("capabilities", user.Capabilities())
		c.Next()
	}
}

func performJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateWorkOrder_ForceSelfAssign(t *testing.T) {
	db := setupAPITest(t)
	_, system := testutils.CreateTestAsset(db, "Буксир «Норд»", models.AssetAreaTugboat)
	require.NotNil(t, system)

	technician := testutils.CreateTestUser(db, "tech", models.RoleTechnician)
	chief := testutils.CreateTestUser(db, "chief", models.RoleSupervisor)

	r := gin.New()
	r.POST("/api/work-orders", authAs(technician), CreateWorkOrder)

	// Техник пытается назначить руководителем наряда другого пользователя
	w := performJSON(r, http.MethodPost, "/api/work-orders", gin.H{
		"description":   "Замена фильтров",
		"system_id":     system.ID,
		"supervisor_id": chief.ID,
	})
	require.Equal(t, 201, w.Code)

	var order models.WorkOrder
	require.NoError(t, db.Order("id DESC").First(&order).Error)
	require.NotNil(t, order.SupervisorID)
	assert.Equal(t, technician.ID, *order.SupervisorID,
		"Клиентское значение supervisor_id игнорируется, назначается подавший")
}

func TestCreateWorkOrder_SupervisorAssignsOthers(t *testing.T) {
	db := setupAPITest(t)
	_, system := testutils.CreateTestAsset(db, "Буксир «Норд»", models.AssetAreaTugboat)
	require.NotNil(t, system)

	chief := testutils.CreateTestUser(db, "chief", models.RoleSupervisor)
	manager := testutils.CreateTestUser(db, "manager", models.RoleFleetManager)

	r := gin.New()
	r.POST("/api/work-orders", authAs(chief), CreateWorkOrder)

	w := performJSON(r, http.MethodPost, "/api/work-orders", gin.H{
		"description":   "Докование",
		"system_id":     system.ID,
		"supervisor_id": manager.ID,
	})
	require.Equal(t, 201, w.Code)

	var order models.WorkOrder
	require.NoError(t, db.Order("id DESC").First(&order).Error)
	require.NotNil(t, order.SupervisorID)
	assert.Equal(t, manager.ID, *order.SupervisorID, "Руководитель назначает любого")
}

func TestUpdateWorkOrder_ForceSelfAssign(t *testing.T) {
	db := setupAPITest(t)
	_, system := testutils.CreateTestAsset(db, "Буксир «Норд»", models.AssetAreaTugboat)
	require.NotNil(t, system)

	diver := testutils.CreateTestUser(db, "diver1", models.RoleDiver)
	chief := testutils.CreateTestUser(db, "chief", models.RoleSupervisor)

	order := models.WorkOrder{
		Description:  "Осмотр корпуса",
		State:        models.WorkOrderStateOpen,
		SystemID:     system.ID,
		SupervisorID: &chief.ID,
	}
	require.NoError(t, db.Create(&order).Error)

	r := gin.New()
	r.PUT("/api/work-orders/:id", authAs(diver), UpdateWorkOrder)

	w := performJSON(r, http.MethodPut, fmt.Sprintf("/api/work-orders/%d", order.ID), gin.H{
		"supervisor_id": chief.ID,
	})
	require.Equal(t, 200, w.Code)

	var updated models.WorkOrder
	require.NoError(t, db.First(&updated, order.ID).Error)
	require.NotNil(t, updated.SupervisorID)
	assert.Equal(t, diver.ID, *updated.SupervisorID,
		"Роль с принудительным самоназначением не передает наряд другим")
}

func TestGetWorkOrder_MarksOverdueTasks(t *testing.T) {
	db := setupAPITest(t)
	_, system := testutils.CreateTestAsset(db, "Буксир «Норд»", models.AssetAreaTugboat)
	require.NotNil(t, system)
	chief := testutils.CreateTestUser(db, "chief", models.RoleSupervisor)

	order := models.WorkOrder{
		Description: "ТО двигателя",
		State:       models.WorkOrderStateInExecution,
		SystemID:    system.ID,
	}
	require.NoError(t, db.Create(&order).Error)

	stale := models.TruncateToDay(time.Now().AddDate(0, 0, -10))
	overdueTask := models.Task{
		Description: "Старая задача",
		WorkOrderID: &order.ID,
		StartDate:   &stale,
		ManDays:     2,
	}
	require.NoError(t, db.Create(&overdueTask).Error)

	fresh := models.TruncateToDay(time.Now())
	currentTask := models.Task{
		Description: "Текущая задача",
		WorkOrderID: &order.ID,
		StartDate:   &fresh,
		ManDays:     5,
	}
	require.NoError(t, db.Create(&currentTask).Error)

	r := gin.New()
	r.GET("/api/work-orders/:id", authAs(chief), GetWorkOrder)

	w := performJSON(r, http.MethodGet, fmt.Sprintf("/api/work-orders/%d", order.ID), nil)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Data struct {
			Order struct {
				Tasks []struct {
					ID      uint `json:"id"`
					Overdue bool `json:"is_overdue"`
				} `json:"tasks"`
			} `json:"order"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Order.Tasks, 2)

	flags := make(map[uint]bool)
	for _, task := range resp.Data.Order.Tasks {
		flags[task.ID] = task.Overdue
	}
	assert.True(t, flags[overdueTask.ID], "Незавершенная задача с прошедшим сроком просрочена")
	assert.False(t, flags[currentTask.ID])
}
