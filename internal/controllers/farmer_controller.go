package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/geo"
	"farmtally/internal/models"
	"farmtally/internal/settlement"
)

// farmerResponse exposes the stored WKB location as GeoJSON.
type farmerResponse struct {
	models.Farmer
	Location json.RawMessage `json:"location,omitempty"`
}

func toFarmerResponse(f models.Farmer) farmerResponse {
	loc, err := geo.WKBToGeoJSON(f.Location)
	if err != nil {
		logrus.WithError(err).WithField("farmer_id", f.ID).Warn("could not decode farmer location")
	}
	return farmerResponse{Farmer: f, Location: loc}
}

type farmerInput struct {
	Name        *string         `json:"name" binding:"omitempty,min=2"`
	Phone       *string         `json:"phone"`
	IDNumber    *string         `json:"id_number"`
	Village     *string         `json:"village"`
	District    *string         `json:"district"`
	BankAccount *string         `json:"bank_account"`
	BankIFSC    *string         `json:"bank_ifsc"`
	AreaAcres   *float64        `json:"area_acres" binding:"omitempty,gte=0"`
	Location    json.RawMessage `json:"location"`
	Latitude    *float64        `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude   *float64        `json:"longitude" binding:"omitempty,gte=-180,lte=180"`

	LoginEmail    string `json:"login_email" binding:"omitempty,email"`
	LoginPassword string `json:"login_password" binding:"omitempty,min=8"`
}

// apply copies set fields onto f. It returns an error only for a bad location.
func (in farmerInput) apply(f *models.Farmer) error {
	if in.Name != nil {
		f.Name = *in.Name
	}
	if in.Phone != nil {
		f.Phone = *in.Phone
	}
	if in.IDNumber != nil {
		f.IDNumber = *in.IDNumber
	}
	if in.Village != nil {
		f.Village = *in.Village
	}
	if in.District != nil {
		f.District = *in.District
	}
	if in.BankAccount != nil {
		f.BankAccount = *in.BankAccount
	}
	if in.BankIFSC != nil {
		f.BankIFSC = strings.ToUpper(*in.BankIFSC)
	}
	if in.AreaAcres != nil {
		f.AreaAcres = *in.AreaAcres
	}

	switch {
	case len(in.Location) > 0:
		loc, err := geo.PointToWKB(in.Location)
		if err != nil {
			return err
		}
		f.Location = loc
	case in.Latitude != nil && in.Longitude != nil:
		loc, err := geo.FromLatLng(*in.Latitude, *in.Longitude)
		if err != nil {
			return err
		}
		f.Location = loc
	}
	return nil
}

// CreateFarmer registers a farmer in the caller's organization, optionally
// provisioning a FARMER login for them.
func CreateFarmer(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	var input farmerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if (input.LoginEmail == "") != (input.LoginPassword == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login_email and login_password must be given together"})
		return
	}

	farmer := models.Farmer{OrganizationID: orgID, CreatedByID: currentUserID(c)}
	if err := input.apply(&farmer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var login *models.User
	if input.LoginEmail != "" {
		email := normalizeEmail(input.LoginEmail)
		var existing int64
		if err := config.DB.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
			dbError(c, err, "User")
			return
		}
		if existing > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		hashed, err := HashPassword(input.LoginPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
			return
		}
		login = &models.User{
			Name:           farmer.Name,
			Email:          email,
			Password:       hashed,
			Phone:          farmer.Phone,
			Role:           models.RoleFarmer,
			OrganizationID: &orgID,
			IsActive:       true,
		}
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if login != nil {
			if err := tx.Create(login).Error; err != nil {
				return err
			}
			farmer.UserID = &login.ID
		}
		return tx.Create(&farmer).Error
	})
	if err != nil {
		dbError(c, err, "Farmer")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"farmer": toFarmerResponse(farmer)})
}

func ListFarmers(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return
	}
	q := config.DB.Where("organization_id = ?", orgID).Order("name asc")
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(village) LIKE ?", like, like, like)
	}

	var farmers []models.Farmer
	if err := q.Find(&farmers).Error; err != nil {
		dbError(c, err, "Farmer")
		return
	}
	out := make([]farmerResponse, 0, len(farmers))
	for _, f := range farmers {
		out = append(out, toFarmerResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func GetFarmer(c *gin.Context) {
	farmer, ok := farmerFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"farmer": toFarmerResponse(*farmer)})
}

func UpdateFarmer(c *gin.Context) {
	farmer, ok := farmerFromPath(c)
	if !ok {
		return
	}
	var input farmerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := input.apply(farmer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.Save(farmer).Error; err != nil {
		dbError(c, err, "Farmer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"farmer": toFarmerResponse(*farmer)})
}

var errFarmerInUse = errors.New("farmer has deliveries or outstanding advances")

// DeleteFarmer removes a farmer with no deliveries or open advances and
// switches off the linked FARMER login.
func DeleteFarmer(c *gin.Context) {
	farmer, ok := farmerFromPath(c)
	if !ok {
		return
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var deliveries, advances int64
		if err := tx.Model(&models.Delivery{}).Where("farmer_id = ?", farmer.ID).Count(&deliveries).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AdvancePayment{}).
			Where("farmer_id = ? AND status <> ?", farmer.ID, models.AdvanceSettled).Count(&advances).Error; err != nil {
			return err
		}
		if deliveries > 0 || advances > 0 {
			return errFarmerInUse
		}
		if farmer.UserID != nil {
			if err := tx.Model(&models.User{}).Where("id = ?", *farmer.UserID).Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return tx.Delete(farmer).Error
	})
	switch {
	case errors.Is(err, errFarmerInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		dbError(c, err, "Farmer")
		return
	}
	if farmer.UserID != nil && !revokeSessions(c, *farmer.UserID) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Farmer deleted"})
}

// FarmerStatement summarises a farmer's deliveries and advances.
func FarmerStatement(c *gin.Context) {
	farmer, ok := farmerFromPath(c)
	if !ok {
		return
	}
	statement, err := buildStatement(farmer)
	if err != nil {
		dbError(c, err, "Statement")
		return
	}
	c.JSON(http.StatusOK, statement)
}

func FarmerAdvances(c *gin.Context) {
	farmer, ok := farmerFromPath(c)
	if !ok {
		return
	}
	var advances []models.AdvancePayment
	if err := config.DB.Where("farmer_id = ?", farmer.ID).Order("payment_date asc, id asc").Find(&advances).Error; err != nil {
		dbError(c, err, "Advance payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": advances})
}

type farmerStatement struct {
	Farmer             farmerResponse          `json:"farmer"`
	Deliveries         []models.Delivery       `json:"deliveries"`
	Advances           []models.AdvancePayment `json:"advances"`
	TotalNetWeight     float64                 `json:"total_net_weight"`
	TotalValue         float64                 `json:"total_value"`
	TotalAdvances      float64                 `json:"total_advances"`
	AdvanceDeducted    float64                 `json:"advance_deducted"`
	TotalPayable       float64                 `json:"total_payable"`
	OutstandingAdvance float64                 `json:"outstanding_advance"`
}

func buildStatement(farmer *models.Farmer) (*farmerStatement, error) {
	st := &farmerStatement{Farmer: toFarmerResponse(*farmer)}
	if err := config.DB.Where("farmer_id = ?", farmer.ID).Order("delivery_date asc, id asc").Find(&st.Deliveries).Error; err != nil {
		return nil, err
	}
	if err := config.DB.Where("farmer_id = ?", farmer.ID).Order("payment_date asc, id asc").Find(&st.Advances).Error; err != nil {
		return nil, err
	}

	for _, d := range st.Deliveries {
		if d.Status != models.DeliveryProcessed && d.Status != models.DeliveryCompleted {
			continue
		}
		st.TotalNetWeight += d.NetWeight
		st.TotalValue += d.TotalValue
		st.AdvanceDeducted += d.AdvanceDeducted
		st.TotalPayable += d.FinalAmount
	}
	for _, a := range st.Advances {
		st.TotalAdvances += a.Amount
		st.OutstandingAdvance += a.Outstanding()
	}

	st.TotalNetWeight = settlement.Round2(st.TotalNetWeight)
	st.TotalValue = settlement.Round2(st.TotalValue)
	st.TotalAdvances = settlement.Round2(st.TotalAdvances)
	st.AdvanceDeducted = settlement.Round2(st.AdvanceDeducted)
	st.TotalPayable = settlement.Round2(st.TotalPayable)
	st.OutstandingAdvance = settlement.Round2(st.OutstandingAdvance)
	return st, nil
}

func farmerFromPath(c *gin.Context) (*models.Farmer, bool) {
	orgID, ok := currentOrgID(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	return loadFarmerForCaller(c, orgID, id)
}
