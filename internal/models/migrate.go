package models

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&Farmer{},
		&Lorry{},
		&LorryLocation{},
		&LorryRequest{},
		&Delivery{},
		&AdvancePayment{},
		&AdvanceSettlement{},
		&Notification{},
	}
}
