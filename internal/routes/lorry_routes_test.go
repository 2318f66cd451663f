package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationTypes(body map[string]interface{}) []string {
	var out []string
	for _, n := range list(body) {
		out = append(out, n.(map[string]interface{})["type"].(string))
	}
	return out
}

func TestLorryRequestApproval(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("fleet@example.com")
	fmToken, fmID := e.createFieldManager(admin, "fm1@example.com")
	otherFM, _ := e.createFieldManager(admin, "fm2@example.com")
	lorryID := e.createLorry(admin, "ka 01 ab 1234")

	lorry := e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/lorries/%d", lorryID), admin, nil)["lorry"].(map[string]interface{})
	assert.Equal(t, "KA01AB1234", lorry["plate_number"])
	assert.Equal(t, "AVAILABLE", lorry["status"])

	e.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/lorry-requests", fmToken, gin.H{
		"required_date": "tomorrow", "location": "x",
	})
	e.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/lorry-requests", fmToken, gin.H{
		"required_date": "2024-06-01", "location": "x", "priority": "WHENEVER",
	})

	body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/lorry-requests", fmToken, gin.H{
		"required_date": "2024-06-01", "location": "North block", "expected_volume_kg": 4000,
	})
	req := body["lorry_request"].(map[string]interface{})
	assert.Equal(t, "PENDING", req["status"])
	assert.Equal(t, "MEDIUM", req["priority"])
	reqID := uint(req["ID"].(float64))

	assert.Contains(t, notificationTypes(e.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications", admin, nil)),
		"LORRY_REQUEST_CREATED")

	assert.Len(t, list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/lorry-requests", admin, nil)), 1)
	assert.Len(t, list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/lorry-requests", fmToken, nil)), 1)
	assert.Empty(t, list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/lorry-requests", otherFM, nil)))

	approve := fmt.Sprintf("/api/v1/lorry-requests/%d/approve", reqID)
	e.expect(http.StatusForbidden, http.MethodPost, approve, fmToken, gin.H{"lorry_id": lorryID})
	body = e.expect(http.StatusOK, http.MethodPost, approve, admin, gin.H{"lorry_id": lorryID})
	req = body["lorry_request"].(map[string]interface{})
	assert.Equal(t, "APPROVED", req["status"])
	assert.EqualValues(t, lorryID, req["assigned_lorry_id"])

	lorry = e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/lorries/%d", lorryID), admin, nil)["lorry"].(map[string]interface{})
	assert.Equal(t, "ASSIGNED", lorry["status"])
	assert.EqualValues(t, fmID, lorry["assigned_manager_id"])

	e.expect(http.StatusConflict, http.MethodPost, approve, admin, gin.H{"lorry_id": lorryID})

	assigned := list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/lorries/assigned", fmToken, nil))
	require.Len(t, assigned, 1)
	assert.Contains(t, notificationTypes(e.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications", fmToken, nil)),
		"LORRY_REQUEST_APPROVED")

	// A second request cannot take the lorry that is already out.
	body = e.expect(http.StatusCreated, http.MethodPost, "/api/v1/lorry-requests", otherFM, gin.H{
		"required_date": "2024-06-02T08:00:00Z", "location": "South block",
	})
	second := uint(body["lorry_request"].(map[string]interface{})["ID"].(float64))
	e.expect(http.StatusConflict, http.MethodPost, fmt.Sprintf("/api/v1/lorry-requests/%d/approve", second), admin, gin.H{"lorry_id": lorryID})
	e.expect(http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/v1/lorries/%d", lorryID), admin, nil)
}

func TestLorryRequestRejectAndCancel(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("rej@example.com")
	fmToken, _ := e.createFieldManager(admin, "rej-fm@example.com")
	otherFM, _ := e.createFieldManager(admin, "rej-fm2@example.com")

	newRequest := func() uint {
		body := e.expect(http.StatusCreated, http.MethodPost, "/api/v1/lorry-requests", fmToken, gin.H{
			"required_date": "2024-07-01", "location": "East",
		})
		return idOf(body, "lorry_request")
	}

	first := newRequest()
	e.expect(http.StatusBadRequest, http.MethodPost, fmt.Sprintf("/api/v1/lorry-requests/%d/reject", first), admin, gin.H{})
	body := e.expect(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/v1/lorry-requests/%d/reject", first), admin, gin.H{
		"reason": "No lorries this week",
	})
	assert.Equal(t, "REJECTED", body["lorry_request"].(map[string]interface{})["status"])
	e.expect(http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/v1/lorry-requests/%d", first), fmToken, nil)
	assert.Contains(t, notificationTypes(e.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications", fmToken, nil)),
		"LORRY_REQUEST_REJECTED")

	second := newRequest()
	e.expect(http.StatusNotFound, http.MethodDelete, fmt.Sprintf("/api/v1/lorry-requests/%d", second), otherFM, nil)
	e.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/v1/lorry-requests/%d", second), fmToken, nil)
	e.expect(http.StatusConflict, http.MethodPost, fmt.Sprintf("/api/v1/lorry-requests/%d/reject", second), admin, gin.H{"reason": "late"})
}

func TestLorryStatusLifecycle(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("life@example.com")
	fmToken, _ := e.createFieldManager(admin, "life-fm@example.com")
	otherFM, _ := e.createFieldManager(admin, "life-fm2@example.com")
	lorryID := e.createLorry(admin, "KA02CD5678")
	status := fmt.Sprintf("/api/v1/lorries/%d/status", lorryID)

	e.expect(http.StatusForbidden, http.MethodPatch, status, fmToken, gin.H{"status": "LOADING"})
	e.expect(http.StatusBadRequest, http.MethodPatch, status, admin, gin.H{"status": "ASSIGNED"})
	e.expect(http.StatusBadRequest, http.MethodPatch, status, admin, gin.H{"status": "FLYING"})
	e.expect(http.StatusBadRequest, http.MethodPatch, status, admin, gin.H{"status": "LOADING"})

	e.expect(http.StatusOK, http.MethodPatch, status, admin, gin.H{"status": "MAINTENANCE"})
	e.expect(http.StatusOK, http.MethodPatch, status, admin, gin.H{"status": "AVAILABLE"})

	e.assignLorry(admin, fmToken, lorryID)

	e.expect(http.StatusForbidden, http.MethodPatch, status, otherFM, gin.H{"status": "LOADING"})
	e.expect(http.StatusForbidden, http.MethodPatch, status, fmToken, gin.H{"status": "MAINTENANCE"})
	for _, next := range []string{"LOADING", "IN_TRANSIT", "SUBMITTED", "SENT_TO_DEALER"} {
		body := e.expect(http.StatusOK, http.MethodPatch, status, fmToken, gin.H{"status": next})
		assert.Equal(t, next, body["lorry"].(map[string]interface{})["status"])
	}
	e.expect(http.StatusBadRequest, http.MethodPatch, status, fmToken, gin.H{"status": "LOADING"})

	body := e.expect(http.StatusOK, http.MethodPatch, status, admin, gin.H{"status": "AVAILABLE"})
	lorry := body["lorry"].(map[string]interface{})
	assert.Equal(t, "AVAILABLE", lorry["status"])
	assert.Nil(t, lorry["assigned_manager_id"])
	assert.Empty(t, list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/lorries/assigned", fmToken, nil)))

	filtered := list(e.expect(http.StatusOK, http.MethodGet, "/api/v1/lorries?status=AVAILABLE", admin, nil))
	assert.Len(t, filtered, 1)
	e.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/v1/lorries/%d", lorryID), admin, nil)
}

func TestDuplicatePlateIsConflict(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("plate@example.com")
	e.createLorry(admin, "KA03EF0001")
	e.expect(http.StatusConflict, http.MethodPost, "/api/v1/lorries", admin, gin.H{"plate_number": "ka03ef0001"})
}

func TestDeleteLorryRequiresAvailable(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("del@example.com")
	lorryID := e.createLorry(admin, "KA04DL0001")
	path := fmt.Sprintf("/api/v1/lorries/%d", lorryID)

	e.expect(http.StatusOK, http.MethodPatch, path+"/status", admin, gin.H{"status": "MAINTENANCE"})
	e.expect(http.StatusConflict, http.MethodDelete, path, admin, nil)

	e.expect(http.StatusOK, http.MethodPatch, path+"/status", admin, gin.H{"status": "AVAILABLE"})
	e.expect(http.StatusOK, http.MethodDelete, path, admin, nil)
	e.expect(http.StatusNotFound, http.MethodGet, path, admin, nil)
}

func TestDeletedLorryPlateCanBeReused(t *testing.T) {
	e := newEnv(t)
	admin, _ := e.registerFarmAdmin("reuse@example.com")
	first := e.createLorry(admin, "KA04RU0001")
	e.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/v1/lorries/%d", first), admin, nil)

	second := e.createLorry(admin, "ka 04 ru 0001")
	assert.NotEqual(t, first, second)
	e.expect(http.StatusConflict, http.MethodPost, "/api/v1/lorries", admin, gin.H{"plate_number": "KA04RU0001"})
}
