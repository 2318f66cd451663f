package main

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/controllers"
	"farmtally/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestCreateAdmin(t *testing.T) {
	controllers.BcryptCost = bcrypt.MinCost
	db := testDB(t)

	user, err := createAdmin(db, "Root", "  Root@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", user.Email)
	assert.Equal(t, models.RoleApplicationAdmin, user.Role)
	assert.Nil(t, user.OrganizationID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct-horse")))

	_, err = createAdmin(db, "Again", "root@example.com", "correct-horse")
	assert.ErrorContains(t, err, "already exists")

	_, err = createAdmin(db, "Short", "short@example.com", "abc")
	assert.Error(t, err)
}

func TestExportDeliveries(t *testing.T) {
	db := testDB(t)

	org := models.Organization{Name: "Acme", Code: "ORG-1"}
	require.NoError(t, db.Create(&org).Error)
	farmer := models.Farmer{OrganizationID: org.ID, Name: "Ravi"}
	require.NoError(t, db.Create(&farmer).Error)
	lorry := models.Lorry{OrganizationID: org.ID, PlateNumber: "KA-01-1234", CapacityKg: 10000}
	require.NoError(t, db.Create(&lorry).Error)

	day := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	for i, date := range []time.Time{day, day.AddDate(0, 0, 5)} {
		d := models.Delivery{
			OrganizationID: org.ID,
			FarmerID:       farmer.ID,
			LorryID:        lorry.ID,
			DeliveryDate:   date,
			BagsCount:      10 + i,
			GrossWeight:    500,
			NetWeight:      480,
			TotalValue:     960,
			FinalAmount:    960,
			Status:         models.DeliveryProcessed,
		}
		require.NoError(t, db.Create(&d).Error)
	}
	other := models.Organization{Name: "Other", Code: "ORG-2"}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&models.Delivery{
		OrganizationID: other.ID, FarmerID: farmer.ID, LorryID: lorry.ID, DeliveryDate: day,
	}).Error)

	out := filepath.Join(t.TempDir(), "out.xlsx")
	n, err := exportDeliveries(db, org.ID, "2024-05-01", "2024-05-10", out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	farmerCell, err := f.GetCellValue("Deliveries", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", farmerCell)
	plate, _ := f.GetCellValue("Deliveries", "D2")
	assert.Equal(t, "KA-01-1234", plate)
	total, _ := f.GetCellValue("Deliveries", "A3")
	assert.Equal(t, "TOTAL", total)

	n, err = exportDeliveries(db, org.ID, "", "", out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = exportDeliveries(db, org.ID, "10/05/2024", "", out)
	assert.Error(t, err)
}
