package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"farmtally/internal/models"
	"farmtally/internal/reports"
)

var exportFlags struct {
	orgID  uint
	from   string
	to     string
	output string
}

var exportDeliveriesCmd = &cobra.Command{
	Use:   "export-deliveries",
	Short: "Write an organization's deliveries to an .xlsx file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		n, err := exportDeliveries(db, exportFlags.orgID, exportFlags.from, exportFlags.to, exportFlags.output)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d deliveries to %s\n", n, exportFlags.output)
		return nil
	},
}

func init() {
	f := exportDeliveriesCmd.Flags()
	f.UintVar(&exportFlags.orgID, "org", 0, "organization id")
	f.StringVar(&exportFlags.from, "from", "", "first delivery date (YYYY-MM-DD)")
	f.StringVar(&exportFlags.to, "to", "", "last delivery date (YYYY-MM-DD)")
	f.StringVarP(&exportFlags.output, "output", "o", "deliveries.xlsx", "output file")
	_ = exportDeliveriesCmd.MarkFlagRequired("org")
}

func exportDeliveries(db *gorm.DB, orgID uint, from, to, output string) (int, error) {
	q := db.Where("organization_id = ?", orgID)
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return 0, fmt.Errorf("invalid --from: %w", err)
		}
		q = q.Where("delivery_date >= ?", t)
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return 0, fmt.Errorf("invalid --to: %w", err)
		}
		q = q.Where("delivery_date < ?", t.AddDate(0, 0, 1))
	}

	var deliveries []models.Delivery
	if err := q.Preload("Farmer").Preload("Lorry").Order("delivery_date, id").Find(&deliveries).Error; err != nil {
		return 0, err
	}

	wb, err := reports.DeliveryWorkbook(deliveries)
	if err != nil {
		return 0, err
	}
	defer wb.Close()
	if err := wb.SaveAs(output); err != nil {
		return 0, fmt.Errorf("save %s: %w", output, err)
	}
	return len(deliveries), nil
}
