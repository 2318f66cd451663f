package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/models"
	"farmtally/internal/settlement"
)

type statusCount struct {
	Status string
	Count  int64
}

func countByStatus(q *gorm.DB) (map[string]int64, error) {
	var rows []statusCount
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func sumOf(q *gorm.DB, expr string) (float64, error) {
	var res struct{ Total float64 }
	if err := q.Select("COALESCE(SUM(" + expr + "), 0) AS total").Scan(&res).Error; err != nil {
		return 0, err
	}
	return settlement.Round2(res.Total), nil
}

func count(q *gorm.DB) (int64, error) {
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// settledStatuses are the delivery states whose value is final.
var settledStatuses = []models.DeliveryStatus{models.DeliveryProcessed, models.DeliveryCompleted}

// AdminStats gives application admins a cross-tenant overview.
func AdminStats(c *gin.Context) {
	db := config.DB
	var byRole []struct {
		Role  string
		Count int64
	}
	if err := db.Model(&models.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&byRole).Error; err != nil {
		dbError(c, err, "Stats")
		return
	}
	users := make(map[string]int64, len(byRole))
	var totalUsers int64
	for _, r := range byRole {
		users[r.Role] = r.Count
		totalUsers += r.Count
	}

	orgs, err := count(db.Model(&models.Organization{}))
	if err != nil {
		dbError(c, err, "Stats")
		return
	}
	activeOrgs, err := count(db.Model(&models.Organization{}).Where("is_active = ?", true))
	if err != nil {
		dbError(c, err, "Stats")
		return
	}
	deliveries, err := count(db.Model(&models.Delivery{}))
	if err != nil {
		dbError(c, err, "Stats")
		return
	}
	settled := func() *gorm.DB { return db.Model(&models.Delivery{}).Where("status IN ?", settledStatuses) }
	netWeight, err := sumOf(settled(), "net_weight")
	if err != nil {
		dbError(c, err, "Stats")
		return
	}
	value, err := sumOf(settled(), "total_value")
	if err != nil {
		dbError(c, err, "Stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations":        orgs,
		"active_organizations": activeOrgs,
		"users":                totalUsers,
		"users_by_role":        users,
		"deliveries":           deliveries,
		"procured_net_weight":  netWeight,
		"procurement_value":    value,
	})
}

// FarmAdminDashboard summarises one organization's fleet, procurement and advances.
func FarmAdminDashboard(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	db := config.DB
	scoped := func(model interface{}) *gorm.DB {
		return db.Model(model).Where("organization_id = ?", orgID)
	}

	lorries, err := countByStatus(scoped(&models.Lorry{}))
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	deliveries, err := countByStatus(scoped(&models.Delivery{}))
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	pendingRequests, err := count(scoped(&models.LorryRequest{}).Where("status = ?", models.RequestPending))
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	farmers, err := count(scoped(&models.Farmer{}))
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	managers, err := count(scoped(&models.User{}).Where("role = ? AND is_active = ?", models.RoleFieldManager, true))
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	netWeight, err := sumOf(scoped(&models.Delivery{}).Where("status IN ?", settledStatuses), "net_weight")
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	value, err := sumOf(scoped(&models.Delivery{}).Where("status IN ?", settledStatuses), "total_value")
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	payable, err := sumOf(scoped(&models.Delivery{}).Where("status = ?", models.DeliveryProcessed), "final_amount")
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	outstanding, err := sumOf(scoped(&models.AdvancePayment{}).Where("status <> ?", models.AdvanceSettled), "amount - settled_amount")
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lorries_by_status":      lorries,
		"deliveries_by_status":   deliveries,
		"pending_lorry_requests": pendingRequests,
		"farmers":                farmers,
		"field_managers":         managers,
		"procured_net_weight":    netWeight,
		"procurement_value":      value,
		"payable_to_farmers":     payable,
		"outstanding_advances":   outstanding,
	})
}

func FieldManagerDashboard(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	me := currentUserID(c)
	db := config.DB

	var lorries []models.Lorry
	if err := db.Where("assigned_manager_id = ?", me).Order("plate_number asc").Find(&lorries).Error; err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	deliveries, err := countByStatus(db.Model(&models.Delivery{}).Where("field_manager_id = ?", me))
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	pending, err := count(db.Model(&models.LorryRequest{}).Where("manager_id = ? AND status = ?", me, models.RequestPending))
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	farmers, err := count(db.Model(&models.Farmer{}).Where("organization_id = ? AND created_by_id = ?", orgID, me))
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	netWeight, err := sumOf(db.Model(&models.Delivery{}).Where("field_manager_id = ? AND status IN ?", me,
		[]models.DeliveryStatus{models.DeliveryInProgress, models.DeliveryProcessed, models.DeliveryCompleted}), "net_weight")
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assigned_lorries":       lorries,
		"deliveries_by_status":   deliveries,
		"pending_lorry_requests": pending,
		"farmers_registered":     farmers,
		"collected_net_weight":   netWeight,
	})
}

func FarmerDashboard(c *gin.Context) {
	farmer, ok := currentFarmer(c)
	if !ok {
		return
	}
	st, err := buildStatement(farmer)
	if err != nil {
		dbError(c, err, "Dashboard")
		return
	}
	var paid float64
	for _, d := range st.Deliveries {
		if d.Status == models.DeliveryCompleted {
			paid += d.FinalAmount
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"deliveries":          len(st.Deliveries),
		"total_net_weight":    st.TotalNetWeight,
		"total_value":         st.TotalValue,
		"advance_deducted":    st.AdvanceDeducted,
		"paid":                settlement.Round2(paid),
		"outstanding_advance": st.OutstandingAdvance,
	})
}
