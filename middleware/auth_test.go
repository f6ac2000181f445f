package middleware

import (
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
)

func setupAuthTest(t *testing.T) (*AuthMiddleware, *models.User) {
	gin.SetMode(gin.TestMode)

	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	// Хэндлеры работают через глобальное подключение
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	user := testutils.CreateTestUser(db, "chief", models.RoleSupervisor)
	require.NotNil(t, user)

	am := &AuthMiddleware{Secret: "test-secret-key-for-tests-only-0123456789", Issuer: "fleetmaint"}
	return am, user
}

func performRequest(am *AuthMiddleware, handlers []gin.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "success"})
	})
	r.GET("/protected", chain...)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_ValidToken(t *testing.T) {
	am, user := setupAuthTest(t)

	token, err := am.GenerateToken(user, time.Hour)
	require.NoError(t, err)

	w := performRequest(am, []gin.HandlerFunc{am.RequireAuth()}, "Bearer "+token)
	assert.Equal(t, 200, w.Code)

	// Префикс Token тоже принимается
	w = performRequest(am, []gin.HandlerFunc{am.RequireAuth()}, "Token "+token)
	assert.Equal(t, 200, w.Code)
}

func TestRequireAuth_MissingOrBadToken(t *testing.T) {
	am, _ := setupAuthTest(t)

	w := performRequest(am, []gin.HandlerFunc{am.RequireAuth()}, "")
	assert.Equal(t, 401, w.Code)

	w = performRequest(am, []gin.HandlerFunc{am.RequireAuth()}, "Bearer not-a-jwt")
	assert.Equal(t, 401, w.Code)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	am, user := setupAuthTest(t)

	foreign := &AuthMiddleware{Secret: "another-secret-entirely-0123456789abcdef", Issuer: "fleetmaint"}
	token, err := foreign.GenerateToken(user, time.Hour)
	require.NoError(t, err)

	w := performRequest(am, []gin.HandlerFunc{am.RequireAuth()}, "Bearer "+token)
	assert.Equal(t, 401, w.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	am, user := setupAuthTest(t)

	token, err := am.GenerateToken(user, -time.Minute)
	require.NoError(t, err)

	w := performRequest(am, []gin.HandlerFunc{am.RequireAuth()}, "Bearer "+token)
	assert.Equal(t, 401, w.Code)
}

func TestRequireAuth_InactiveUser(t *testing.T) {
	am, user := setupAuthTest(t)

	token, err := am.GenerateToken(user, time.Hour)
	require.NoError(t, err)
	require.NoError(t, database.GetDB().Model(user).Update("is_active", false).Error)

	w := performRequest(am, []gin.HandlerFunc{am.RequireAuth()}, "Bearer "+token)
	assert.Equal(t, 401, w.Code)
}

func TestRequireSupervisor(t *testing.T) {
	am, supervisor := setupAuthTest(t)

	supToken, err := am.GenerateToken(supervisor, time.Hour)
	require.NoError(t, err)

	w := performRequest(am, []gin.HandlerFunc{am.RequireAuth(), am.RequireSupervisor()}, "Bearer "+supToken)
	assert.Equal(t, 200, w.Code)

	// Техник руководящие операции не выполняет
	technician := testutils.CreateTestUser(database.GetDB(), "tech", models.RoleTechnician)
	require.NotNil(t, technician)
	techToken, err := am.GenerateToken(technician, time.Hour)
	require.NoError(t, err)

	w = performRequest(am, []gin.HandlerFunc{am.RequireAuth(), am.RequireSupervisor()}, "Bearer "+techToken)
	assert.Equal(t, 403, w.Code)
}
