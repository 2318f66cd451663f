package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLorryTransitions(t *testing.T) {
	cases := []struct {
		from, to LorryStatus
		ok       bool
	}{
		{LorryAvailable, LorryAssigned, true},
		{LorryAvailable, LorryMaintenance, true},
		{LorryAvailable, LorryLoading, false},
		{LorryAssigned, LorryLoading, true},
		{LorryAssigned, LorryAvailable, true},
		{LorryLoading, LorryInTransit, true},
		{LorryLoading, LorryAvailable, false},
		{LorryInTransit, LorrySubmitted, true},
		{LorrySubmitted, LorrySentToDealer, true},
		{LorrySentToDealer, LorryAvailable, true},
		{LorryMaintenance, LorryAvailable, true},
		{LorryMaintenance, LorryAssigned, false},
		{LorryStatus("PARKED"), LorryAvailable, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.True(t, LorrySubmitted.Valid())
	assert.False(t, LorryStatus("PARKED").Valid())
}

func TestDeliveryTransitions(t *testing.T) {
	assert.True(t, DeliveryPending.CanTransition(DeliveryInProgress))
	assert.True(t, DeliveryInProgress.CanTransition(DeliveryInProgress), "weighing can be corrected")
	assert.True(t, DeliveryInProgress.CanTransition(DeliveryProcessed))
	assert.True(t, DeliveryProcessed.CanTransition(DeliveryCompleted))

	assert.False(t, DeliveryPending.CanTransition(DeliveryProcessed))
	assert.False(t, DeliveryProcessed.CanTransition(DeliveryInProgress))
	assert.False(t, DeliveryCompleted.CanTransition(DeliveryProcessed))
	assert.False(t, DeliveryStatus("LOST").Valid())
}

func TestRolesAndMethods(t *testing.T) {
	for _, r := range []Role{RoleApplicationAdmin, RoleFarmAdmin, RoleFieldManager, RoleFarmer} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("SUPERUSER").Valid())

	assert.True(t, MethodUPI.Valid())
	assert.False(t, PaymentMethod("BARTER").Valid())

	assert.True(t, AdvancePartiallySettled.Valid())
	assert.False(t, AdvanceStatus("WRITTEN_OFF").Valid())
}

func TestAdvanceOutstanding(t *testing.T) {
	a := AdvancePayment{Amount: 5000, SettledAmount: 1250.5}
	assert.InDelta(t, 3749.5, a.Outstanding(), 1e-9)
}

func TestUserOrgID(t *testing.T) {
	u := User{}
	assert.Zero(t, u.OrgID())
	id := uint(12)
	u.OrganizationID = &id
	assert.Equal(t, uint(12), u.OrgID())
}
