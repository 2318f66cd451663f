package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"farmtally/internal/config"
	"farmtally/internal/models"
)

type advancePaymentInput struct {
	FarmerID    uint                 `json:"farmer_id" binding:"required"`
	Amount      float64              `json:"amount" binding:"required,gt=0"`
	PaymentDate string               `json:"payment_date"`
	Method      models.PaymentMethod `json:"method"`
	Reference   string               `json:"reference"`
	Reason      string               `json:"reason"`
}

// CreateAdvancePayment records money paid to a farmer ahead of settlement.
func CreateAdvancePayment(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	var input advancePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Method == "" {
		input.Method = models.MethodCash
	}
	if !input.Method.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment method"})
		return
	}
	paidOn := time.Now()
	if input.PaymentDate != "" {
		d, err := parseFlexibleDate(input.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_date must be YYYY-MM-DD or RFC3339"})
			return
		}
		paidOn = d
	}

	farmer, ok := loadFarmerForCaller(c, orgID, input.FarmerID)
	if !ok {
		return
	}

	advance := models.AdvancePayment{
		OrganizationID: orgID,
		FarmerID:       farmer.ID,
		Amount:         input.Amount,
		PaymentDate:    paidOn,
		Method:         input.Method,
		Reference:      input.Reference,
		Reason:         input.Reason,
		Status:         models.AdvanceOutstanding,
		RecordedByID:   currentUserID(c),
	}
	if err := config.DB.Create(&advance).Error; err != nil {
		dbError(c, err, "Advance payment")
		return
	}

	if farmer.UserID != nil {
		sent, err := queueNotifications(config.DB, []uint{*farmer.UserID}, "ADVANCE_RECORDED", "Advance payment recorded",
			"An advance has been recorded against your account")
		if err != nil {
			logrus.WithError(err).WithField("advance_id", advance.ID).Warn("could not queue advance notification")
		} else {
			publishNotifications(sent)
		}
	}
	c.JSON(http.StatusCreated, gin.H{"advance_payment": advance})
}

func ListAdvancePayments(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	q := config.DB.Where("organization_id = ?", orgID).Preload("Farmer").Order("payment_date desc, id desc")
	if id, set, err := queryUint(c, "farmer_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid farmer_id"})
		return
	} else if set {
		q = q.Where("farmer_id = ?", id)
	}
	if s := models.AdvanceStatus(c.Query("status")); s != "" {
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		q = q.Where("status = ?", s)
	}
	var list []models.AdvancePayment
	if err := q.Find(&list).Error; err != nil {
		dbError(c, err, "Advance payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func GetAdvancePayment(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var advance models.AdvancePayment
	if err := config.DB.Where("id = ? AND organization_id = ?", id, orgID).Preload("Farmer").First(&advance).Error; err != nil {
		dbError(c, err, "Advance payment")
		return
	}
	var settlements []models.AdvanceSettlement
	if err := config.DB.Where("advance_payment_id = ?", advance.ID).Order("id asc").Find(&settlements).Error; err != nil {
		dbError(c, err, "Advance settlement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"advance_payment": advance, "settlements": settlements})
}

// ListMyAdvances lists the calling farmer's advances.
func ListMyAdvances(c *gin.Context) {
	farmer, ok := currentFarmer(c)
	if !ok {
		return
	}
	var list []models.AdvancePayment
	if err := config.DB.Where("farmer_id = ?", farmer.ID).Order("payment_date desc, id desc").Find(&list).Error; err != nil {
		dbError(c, err, "Advance payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
