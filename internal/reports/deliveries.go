// Package reports renders procurement data as Excel workbooks.
package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"farmtally/internal/models"
	"farmtally/internal/settlement"
)

const deliverySheet = "Deliveries"

var deliveryHeaders = []string{
	"Delivery ID", "Date", "Farmer", "Lorry", "Bags", "Gross (kg)",
	"Moisture %", "Grade", "Std. deduction (kg)", "Quality deduction (kg)",
	"Net (kg)", "Price/kg", "Total value", "Advance deducted", "Final amount", "Status",
}

// DeliveryWorkbook builds a workbook with one row per delivery and a totals
// row. Farmer and Lorry should be preloaded; missing associations render blank.
func DeliveryWorkbook(deliveries []models.Delivery) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", deliverySheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(deliverySheet, "A1", &deliveryHeaders); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	_ = f.SetRowStyle(deliverySheet, 1, 1, bold)

	var gross, net, total, advance, final float64
	for i, d := range deliveries {
		farmer, lorry := "", ""
		if d.Farmer != nil {
			farmer = d.Farmer.Name
		}
		if d.Lorry != nil {
			lorry = d.Lorry.PlateNumber
		}
		row := []interface{}{
			d.ID, d.DeliveryDate.Format("2006-01-02"), farmer, lorry, d.BagsCount, d.GrossWeight,
			d.MoisturePercent, string(d.QualityGrade), d.StandardDeduction, d.QualityDeduction,
			d.NetWeight, d.PricePerKg, d.TotalValue, d.AdvanceDeducted, d.FinalAmount, string(d.Status),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(deliverySheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write delivery %d: %w", d.ID, err)
		}
		gross += d.GrossWeight
		net += d.NetWeight
		total += d.TotalValue
		advance += d.AdvanceDeducted
		final += d.FinalAmount
	}

	totalsRow := len(deliveries) + 2
	totals := []interface{}{
		"TOTAL", "", "", "", "", settlement.Round2(gross), "", "", "", "",
		settlement.Round2(net), "", settlement.Round2(total), settlement.Round2(advance), settlement.Round2(final), "",
	}
	cell, _ := excelize.CoordinatesToCellName(1, totalsRow)
	if err := f.SetSheetRow(deliverySheet, cell, &totals); err != nil {
		f.Close()
		return nil, err
	}
	_ = f.SetRowStyle(deliverySheet, totalsRow, totalsRow, bold)
	_ = f.SetColWidth(deliverySheet, "A", "P", 16)

	return f, nil
}
