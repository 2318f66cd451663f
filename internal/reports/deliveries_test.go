package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"farmtally/internal/models"
)

func TestDeliveryWorkbook(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	deliveries := []models.Delivery{
		{
			Model: gorm.Model{ID: 1}, DeliveryDate: day, BagsCount: 10, GrossWeight: 1000,
			NetWeight: 980, PricePerKg: 20, TotalValue: 19600, AdvanceDeducted: 5000, FinalAmount: 14600,
			QualityGrade: models.GradeA, Status: models.DeliveryProcessed,
			Farmer: &models.Farmer{Name: "Ravi"}, Lorry: &models.Lorry{PlateNumber: "KA01AB1234"},
		},
		{
			Model: gorm.Model{ID: 2}, DeliveryDate: day, GrossWeight: 500, NetWeight: 500,
			Status: models.DeliveryPending,
		},
	}

	f, err := DeliveryWorkbook(deliveries)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(deliverySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Delivery ID", header)

	farmer, _ := f.GetCellValue(deliverySheet, "C2")
	assert.Equal(t, "Ravi", farmer)
	lorry, _ := f.GetCellValue(deliverySheet, "D2")
	assert.Equal(t, "KA01AB1234", lorry)
	date, _ := f.GetCellValue(deliverySheet, "B2")
	assert.Equal(t, "2026-03-14", date)

	label, _ := f.GetCellValue(deliverySheet, "A4")
	assert.Equal(t, "TOTAL", label)
	net, _ := f.GetCellValue(deliverySheet, "K4")
	assert.Equal(t, "1480", net)
	final, _ := f.GetCellValue(deliverySheet, "O4")
	assert.Equal(t, "14600", final)
}

func TestDeliveryWorkbookEmpty(t *testing.T) {
	f, err := DeliveryWorkbook(nil)
	require.NoError(t, err)
	defer f.Close()

	label, _ := f.GetCellValue(deliverySheet, "A2")
	assert.Equal(t, "TOTAL", label)
}
