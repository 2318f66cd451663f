package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/models"
	"farmtally/internal/settlement"
)

var errDeliveryMoved = errors.New("delivery status changed concurrently")

type createDeliveryInput struct {
	FarmerID     uint   `json:"farmer_id" binding:"required"`
	LorryID      uint   `json:"lorry_id" binding:"required"`
	BagsCount    int    `json:"bags_count" binding:"gte=0"`
	DeliveryDate string `json:"delivery_date"`
	Notes        string `json:"notes"`
}

// CreateDelivery opens a PENDING delivery for a farmer onto a collecting lorry.
func CreateDelivery(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	var input createDeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if input.DeliveryDate != "" {
		d, err := parseFlexibleDate(input.DeliveryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delivery_date must be YYYY-MM-DD or RFC3339"})
			return
		}
		date = d
	}

	farmer, ok := loadFarmerForCaller(c, orgID, input.FarmerID)
	if !ok {
		return
	}
	var lorry models.Lorry
	if err := config.DB.Where("id = ? AND organization_id = ?", input.LorryID, orgID).First(&lorry).Error; err != nil {
		dbError(c, err, "Lorry")
		return
	}
	if lorry.Status != models.LorryAssigned && lorry.Status != models.LorryLoading {
		c.JSON(http.StatusConflict, gin.H{"error": "lorry is not collecting (" + string(lorry.Status) + ")"})
		return
	}
	if currentRole(c) == models.RoleFieldManager &&
		(lorry.AssignedManagerID == nil || *lorry.AssignedManagerID != currentUserID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "lorry is not assigned to you"})
		return
	}

	managerID := currentUserID(c)
	if lorry.AssignedManagerID != nil {
		managerID = *lorry.AssignedManagerID
	}
	delivery := models.Delivery{
		OrganizationID: orgID,
		FarmerID:       farmer.ID,
		LorryID:        lorry.ID,
		FieldManagerID: managerID,
		DeliveryDate:   date,
		BagsCount:      input.BagsCount,
		Notes:          input.Notes,
		Status:         models.DeliveryPending,
	}
	if err := config.DB.Create(&delivery).Error; err != nil {
		dbError(c, err, "Delivery")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"delivery": delivery})
}

type weighingInput struct {
	GrossWeight      float64             `json:"gross_weight" binding:"required,gt=0"`
	MoisturePercent  float64             `json:"moisture_percent" binding:"gte=0,lte=100"`
	QualityGrade     models.QualityGrade `json:"quality_grade" binding:"required,oneof=A B C REJECTED"`
	QualityDeduction float64             `json:"quality_deduction" binding:"gte=0"`
	BagsCount        *int                `json:"bags_count" binding:"omitempty,gte=0"`
}

// RecordWeighing stores weighbridge figures and computes the net weight.
func RecordWeighing(c *gin.Context) {
	delivery, ok := deliveryFromPath(c)
	if !ok {
		return
	}
	var input weighingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !delivery.Status.CanTransition(models.DeliveryInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "delivery can no longer be weighed (" + string(delivery.Status) + ")"})
		return
	}

	var org models.Organization
	if err := config.DB.First(&org, delivery.OrganizationID).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}

	bags := delivery.BagsCount
	if input.BagsCount != nil {
		bags = *input.BagsCount
	}
	weights, err := settlement.Weigh(settlement.Weighing{
		GrossWeight:      input.GrossWeight,
		BagsCount:        bags,
		PerBagDeduction:  org.StandardDeductionPerBag,
		QualityDeduction: input.QualityDeduction,
		MoisturePercent:  input.MoisturePercent,
		Rejected:         input.QualityGrade == models.GradeRejected,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := config.DB.Model(&models.Delivery{}).
		Where("id = ? AND status IN ?", delivery.ID, []models.DeliveryStatus{models.DeliveryPending, models.DeliveryInProgress}).
		Updates(map[string]interface{}{
			"bags_count":         bags,
			"gross_weight":       input.GrossWeight,
			"moisture_percent":   input.MoisturePercent,
			"quality_grade":      input.QualityGrade,
			"standard_deduction": weights.StandardDeduction,
			"quality_deduction":  weights.QualityDeduction,
			"net_weight":         weights.NetWeight,
			"status":             models.DeliveryInProgress,
		})
	if res.Error != nil {
		dbError(c, res.Error, "Delivery")
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": errDeliveryMoved.Error()})
		return
	}
	respondWithDelivery(c, delivery.ID)
}

// ProcessDelivery prices a weighed delivery and offsets the farmer's
// outstanding advances, oldest first.
func ProcessDelivery(c *gin.Context) {
	delivery, ok := deliveryFromPath(c)
	if !ok {
		return
	}
	var input struct {
		PricePerKg *float64 `json:"price_per_kg" binding:"omitempty,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if delivery.Status != models.DeliveryInProgress {
		c.JSON(http.StatusConflict, gin.H{"error": "delivery must be weighed before processing (" + string(delivery.Status) + ")"})
		return
	}

	var org models.Organization
	if err := config.DB.First(&org, delivery.OrganizationID).Error; err != nil {
		dbError(c, err, "Organization")
		return
	}
	price := org.DefaultPricePerKg
	if input.PricePerKg != nil {
		price = *input.PricePerKg
	}
	if price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_per_kg is required when the organization has no default price"})
		return
	}

	var sent []models.Notification
	var payment settlement.Payment
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var advances []models.AdvancePayment
		if err := tx.Where("farmer_id = ? AND status <> ?", delivery.FarmerID, models.AdvanceSettled).
			Order("payment_date asc, id asc").Find(&advances).Error; err != nil {
			return err
		}
		open := make([]settlement.Advance, 0, len(advances))
		byID := make(map[uint]*models.AdvancePayment, len(advances))
		for i := range advances {
			open = append(open, settlement.Advance{ID: advances[i].ID, Outstanding: advances[i].Outstanding()})
			byID[advances[i].ID] = &advances[i]
		}

		var err error
		payment, err = settlement.Settle(delivery.NetWeight, price, delivery.QualityGrade == models.GradeRejected, open)
		if err != nil {
			return err
		}

		for _, alloc := range payment.Allocations {
			adv := byID[alloc.AdvanceID]
			settled := settlement.Round2(adv.SettledAmount + alloc.Amount)
			status := models.AdvancePartiallySettled
			if settled >= adv.Amount {
				status = models.AdvanceSettled
			}
			if err := tx.Model(adv).Updates(map[string]interface{}{"settled_amount": settled, "status": status}).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.AdvanceSettlement{
				DeliveryID:       delivery.ID,
				AdvancePaymentID: adv.ID,
				Amount:           alloc.Amount,
			}).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		res := tx.Model(&models.Delivery{}).
			Where("id = ? AND status = ?", delivery.ID, models.DeliveryInProgress).
			Updates(map[string]interface{}{
				"price_per_kg":     price,
				"total_value":      payment.TotalValue,
				"advance_deducted": payment.AdvanceDeducted,
				"final_amount":     payment.FinalAmount,
				"status":           models.DeliveryProcessed,
				"processed_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errDeliveryMoved
		}

		var farmer models.Farmer
		if err := tx.First(&farmer, delivery.FarmerID).Error; err != nil {
			return err
		}
		if farmer.UserID != nil {
			sent, err = queueNotifications(tx, []uint{*farmer.UserID}, "DELIVERY_PROCESSED", "Delivery processed",
				fmt.Sprintf("%.2f kg valued at %.2f; advance deducted %.2f; payable %.2f",
					delivery.NetWeight, payment.TotalValue, payment.AdvanceDeducted, payment.FinalAmount))
		}
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, errDeliveryMoved):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, settlement.ErrPrice), errors.Is(err, settlement.ErrNetWeight):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).WithField("delivery_id", delivery.ID).Error("ProcessDelivery failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process delivery"})
		}
		return
	}
	publishNotifications(sent)

	var updated models.Delivery
	if err := config.DB.Preload("Farmer").Preload("Lorry").First(&updated, delivery.ID).Error; err != nil {
		dbError(c, err, "Delivery")
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery": updated, "allocations": payment.Allocations})
}

// CompleteDelivery marks a processed delivery as paid out.
func CompleteDelivery(c *gin.Context) {
	delivery, ok := deliveryFromPath(c)
	if !ok {
		return
	}
	if !delivery.Status.CanTransition(models.DeliveryCompleted) {
		c.JSON(http.StatusConflict, gin.H{"error": "only processed deliveries can be completed (" + string(delivery.Status) + ")"})
		return
	}
	res := config.DB.Model(&models.Delivery{}).
		Where("id = ? AND status = ?", delivery.ID, models.DeliveryProcessed).
		Updates(map[string]interface{}{"status": models.DeliveryCompleted, "completed_at": time.Now()})
	if res.Error != nil {
		dbError(c, res.Error, "Delivery")
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": errDeliveryMoved.Error()})
		return
	}
	respondWithDelivery(c, delivery.ID)
}

func ListDeliveries(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	q, ok := deliveryQuery(c, config.DB.Where("organization_id = ?", orgID))
	if !ok {
		return
	}
	if currentRole(c) == models.RoleFieldManager {
		q = q.Where("field_manager_id = ?", currentUserID(c))
	}
	var list []models.Delivery
	if err := q.Preload("Farmer").Preload("Lorry").Order("delivery_date desc, id desc").Find(&list).Error; err != nil {
		dbError(c, err, "Delivery")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func GetDelivery(c *gin.Context) {
	delivery, ok := deliveryFromPath(c)
	if !ok {
		return
	}
	respondWithDelivery(c, delivery.ID)
}

// ListMyFarmerDeliveries lists the calling farmer's own deliveries.
func ListMyFarmerDeliveries(c *gin.Context) {
	farmer, ok := currentFarmer(c)
	if !ok {
		return
	}
	var list []models.Delivery
	if err := config.DB.Where("farmer_id = ?", farmer.ID).Preload("Lorry").
		Order("delivery_date desc, id desc").Find(&list).Error; err != nil {
		dbError(c, err, "Delivery")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// deliveryQuery applies the shared status/farmer/lorry/date filters.
func deliveryQuery(c *gin.Context, q *gorm.DB) (*gorm.DB, bool) {
	if s := models.DeliveryStatus(c.Query("status")); s != "" {
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return nil, false
		}
		q = q.Where("status = ?", s)
	}
	for _, key := range []string{"farmer_id", "lorry_id"} {
		id, set, err := queryUint(c, key)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
			return nil, false
		}
		if set {
			q = q.Where(key+" = ?", id)
		}
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
		return nil, false
	}
	if from != nil {
		q = q.Where("delivery_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("delivery_date <= ?", *to)
	}
	return q, true
}

func deliveryFromPath(c *gin.Context) (*models.Delivery, bool) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	q := config.DB.Where("id = ? AND organization_id = ?", id, orgID)
	if currentRole(c) == models.RoleFieldManager {
		q = q.Where("field_manager_id = ?", currentUserID(c))
	}
	var delivery models.Delivery
	if err := q.First(&delivery).Error; err != nil {
		dbError(c, err, "Delivery")
		return nil, false
	}
	return &delivery, true
}

func respondWithDelivery(c *gin.Context, id uint) {
	var delivery models.Delivery
	if err := config.DB.Preload("Farmer").Preload("Lorry").First(&delivery, id).Error; err != nil {
		dbError(c, err, "Delivery")
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery": delivery})
}
