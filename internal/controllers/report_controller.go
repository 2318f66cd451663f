package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"farmtally/internal/config"
	"farmtally/internal/models"
	"farmtally/internal/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportDeliveries streams the organization's deliveries as an Excel workbook.
func ExportDeliveries(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	q, ok := deliveryQuery(c, config.DB.Where("organization_id = ?", orgID))
	if !ok {
		return
	}
	var list []models.Delivery
	if err := q.Preload("Farmer").Preload("Lorry").Order("delivery_date asc, id asc").Find(&list).Error; err != nil {
		dbError(c, err, "Delivery")
		return
	}

	f, err := reports.DeliveryWorkbook(list)
	if err != nil {
		logrus.WithError(err).Error("ExportDeliveries: could not build workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build report"})
		return
	}
	defer f.Close()

	name := fmt.Sprintf("deliveries-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		logrus.WithError(err).Error("ExportDeliveries: write failed")
	}
}
