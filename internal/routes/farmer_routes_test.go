package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmtally/internal/models"
)

func TestFarmersAreScopedToOrganization(t *testing.T) {
	e := newEnv(t)
	adminA, _ := e.registerFarmAdmin("a@example.com")
	adminB, _ := e.registerFarmAdmin("b@example.com")

	body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/farmers", adminA, gin.H{
		"name": "Ravi Kumar", "phone": "9000000001", "village": "Hosur",
	})
	farmerID := idOf(body, "farmer")
	path := fmt.Sprintf("/api/v1/farmers/%d", farmerID)

	e.expect(http.StatusOK, http.MethodGet, path, adminA, nil)
	e.expect(http.StatusNotFound, http.MethodGet, path, adminB, nil)
	e.expect(http.StatusNotFound, http.MethodPut, path, adminB, gin.H{"name": "Hijacked"})
	e.expect(http.StatusNotFound, http.MethodDelete, path, adminB, nil)

	assert.Len(t, list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/farmers", adminA, nil)), 1)
	assert.Empty(t, list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/farmers", adminB, nil)))
}

func TestFarmerCRUDAndSearch(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("crud@example.com")
	fmToken, _ := e.createFieldManager(admin, "fm-crud@example.com")

	e.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/farmers", admin, gin.H{"phone": "1"})

	body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/farmers", fmToken, gin.H{
		"name": "Lakshmi", "village": "Anekal", "bank_ifsc": "sbin0001234",
		"latitude": 12.71, "longitude": 77.69,
	})
	farmer := body["farmer"].(map[string]interface{})
	assert.Equal(t, "SBIN0001234", farmer["bank_ifsc"])
	loc := farmer["location"].(map[string]interface{})
	assert.Equal(t, "Point", loc["type"])
	assert.Equal(t, []interface{}{77.69, 12.71}, loc["coordinates"])
	id := uint(farmer["ID"].(float64))

	e.expect(http.StatusCreated, http.MethodPost, "/api/v1/farmers", admin, gin.H{"name": "Gopal", "village": "Hosur"})

	found := list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/farmers?search=anek", admin, nil))
	require.Len(t, found, 1)
	assert.Equal(t, "Lakshmi", found[0].(map[string]interface{})["name"])

	body = e.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/v1/farmers/%d", id), admin, gin.H{
		"location": gin.H{"type": "Point", "coordinates": []float64{77.5, 12.9}},
	})
	loc = body["farmer"].(map[string]interface{})["location"].(map[string]interface{})
	assert.Equal(t, []interface{}{77.5, 12.9}, loc["coordinates"])

	e.expect(http.StatusBadRequest, http.MethodPut, fmt.Sprintf("/api/v1/farmers/%d", id), admin, gin.H{
		"location": gin.H{"type": "LineString", "coordinates": [][]float64{{1, 2}, {3, 4}}},
	})

	e.expect(http.StatusForbidden, http.MethodDelete, fmt.Sprintf("/api/v1/farmers/%d", id), fmToken, nil)
	e.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/v1/farmers/%d", id), admin, nil)
	e.expect(http.StatusNotFound, http.MethodGet, fmt.Sprintf("/api/v1/farmers/%d", id), admin, nil)
}

func TestFarmerLoginProvisioning(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("prov@example.com")

	e.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/farmers", admin, gin.H{
		"name": "Half", "login_email": "half@example.com",
	})

	body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/farmers", admin, gin.H{
		"name": "Suresh", "login_email": "suresh@example.com", "login_password": "password123",
	})
	assert.NotNil(t, body["farmer"].(map[string]interface{})["user_id"])

	e.expect(http.StatusConflict, http.MethodPost, "/api/v1/farmers", admin, gin.H{
		"name": "Other", "login_email": "suresh@example.com", "login_password": "password123",
	})

	farmerToken := e.login("suresh@example.com", "password123")
	assert.Empty(t, list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/farmer/deliveries", farmerToken, nil)))
	e.expect(http.StatusForbidden, http.MethodGet, "/api/v1/farmers", farmerToken, nil)
}

func TestRoleGates(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("gate@example.com")
	fmToken, _ := e.createFieldManager(admin, "gate-fm@example.com")

	e.expect(http.StatusForbidden, http.MethodPost, "/api/v1/lorries", fmToken, gin.H{"plate_number": "KA01"})
	e.expect(http.StatusForbidden, http.MethodPost, "/api/v1/field-managers", fmToken, gin.H{})
	e.expect(http.StatusForbidden, http.MethodGet, "/api/v1/organizations", admin, nil)
	e.expect(http.StatusForbidden, http.MethodGet, "/api/v1/dashboard/field-manager", admin, nil)
	e.expect(http.StatusForbidden, http.MethodGet, "/api/v1/reports/deliveries.xlsx", fmToken, nil)
	e.expect(http.StatusUnauthorized, http.MethodGet, "/api/v1/lorries", "", nil)
}

func TestDeleteFarmerDisablesLogin(t *testing.T) {
	e := newEnv(t)
	p := setupProcurement(e)
	farmerPath := fmt.Sprintf("/api/v1/farmers/%d", p.farmerID)

	advance := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/advance-payments", p.admin, gin.H{
		"farmer_id": p.farmerID, "amount": 100,
	})
	e.expect(http.StatusConflict, http.MethodDelete, farmerPath, p.admin, nil)
	require.NoError(t, e.db.Model(&models.AdvancePayment{}).Where("id = ?", idOf(advance, "advance_payment")).
		Update("status", models.AdvanceSettled).Error)

	e.expect(http.StatusOK, http.MethodGet, "/api/v1/farmer/deliveries", p.farmer, nil)
	e.expect(http.StatusOK, http.MethodDelete, farmerPath, p.admin, nil)
	e.expect(http.StatusUnauthorized, http.MethodGet, "/api/v1/farmer/deliveries", p.farmer, nil)
	e.expect(http.StatusForbidden, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "manju@example.com", "password": "password123",
	})
}

func TestDeleteFarmerFailsClosedOnDatabaseError(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("closed@example.com")
	id := idOf(e.expect(http.StatusCreated, http.MethodPost, "/api/v1/farmers", admin, gin.H{"name": "Kept"}), "farmer")

	require.NoError(t, e.db.Migrator().DropTable(&models.Delivery{}))
	e.expect(http.StatusInternalServerError, http.MethodDelete, fmt.Sprintf("/api/v1/farmers/%d", id), admin, nil)
	e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/farmers/%d", id), admin, nil)
}
