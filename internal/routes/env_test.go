package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"farmtally/internal/config"
	"farmtally/internal/controllers"
	"farmtally/internal/models"
	"farmtally/internal/tokens"
)

var dbSeq atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	controllers.BcryptCost = bcrypt.MinCost
}

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

// newEnv wires config.DB and config.Tokens to throwaway stores and returns
// the full API router.
func newEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:farmtally_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	prevDB, prevTokens := config.DB, config.Tokens
	config.DB = db
	config.Tokens = tokens.NewStore(rdb)
	t.Cleanup(func() {
		config.DB, config.Tokens = prevDB, prevTokens
		rdb.Close()
		sqlDB.Close()
	})

	return &testEnv{t: t, router: SetupRouter(), db: db, redis: mr}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// expect performs the request and fails unless the status matches.
func (e *testEnv) expect(status int, method, path, token string, body interface{}) map[string]interface{} {
	e.t.Helper()
	w := e.do(method, path, token, body)
	require.Equal(e.t, status, w.Code, "%s %s: %s", method, path, w.Body.String())
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		return nil
	}
	var out map[string]interface{}
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// registerFarmAdmin signs up a new organization and returns its admin token.
func (e *testEnv) registerFarmAdmin(email string) (string, uint) {
	e.t.Helper()
	body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":              "Farm Admin",
		"email":             email,
		"password":          "password123",
		"organization_name": "Org of " + email,
	})
	user := body["user"].(map[string]interface{})
	return body["access_token"].(string), uint(user["organization_id"].(float64))
}

func (e *testEnv) login(email, password string) string {
	e.t.Helper()
	body := e.expect(http.StatusOK, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": email, "password": password,
	})
	return body["access_token"].(string)
}

// createFieldManager adds a field manager through the API and logs them in.
func (e *testEnv) createFieldManager(adminToken, email string) (string, uint) {
	e.t.Helper()
	body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/field-managers", adminToken, gin.H{
		"name": "Field Manager", "email": email, "password": "password123",
	})
	fm := body["field_manager"].(map[string]interface{})
	return e.login(email, "password123"), uint(fm["ID"].(float64))
}

func (e *testEnv) createLorry(adminToken, plate string) uint {
	e.t.Helper()
	body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/lorries", adminToken, gin.H{
		"plate_number": plate, "capacity_kg": 10000,
	})
	return idOf(body, "lorry")
}

// assignLorry runs the request/approve cycle so the lorry is ASSIGNED to the manager.
func (e *testEnv) assignLorry(adminToken, fmToken string, lorryID uint) uint {
	e.t.Helper()
	body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/lorry-requests", fmToken, gin.H{
		"required_date": "2024-06-01", "location": "North block", "priority": "HIGH", "expected_volume_kg": 5000,
	})
	reqID := idOf(body, "lorry_request")
	e.expect(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/v1/lorry-requests/%d/approve", reqID), adminToken, gin.H{
		"lorry_id": lorryID,
	})
	return reqID
}

func (e *testEnv) seedAppAdmin(email string) string {
	e.t.Helper()
	hash, err := controllers.HashPassword("password123")
	require.NoError(e.t, err)
	require.NoError(e.t, e.db.Create(&models.User{
		Name: "Root", Email: email, Password: hash, Role: models.RoleApplicationAdmin, IsActive: true,
	}).Error)
	return e.login(email, "password123")
}

func idOf(body map[string]interface{}, key string) uint {
	return uint(body[key].(map[string]interface{})["ID"].(float64))
}

func list(body map[string]interface{}) []interface{} {
	items, _ := body["data"].([]interface{})
	return items
}
