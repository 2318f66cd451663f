package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeigh(t *testing.T) {
	tests := []struct {
		name    string
		in      Weighing
		want    Weights
		wantErr error
	}{
		{
			name: "standard and quality deductions",
			in:   Weighing{GrossWeight: 5000, BagsCount: 50, PerBagDeduction: 2, QualityDeduction: 25},
			want: Weights{StandardDeduction: 100, QualityDeduction: 25, NetWeight: 4875},
		},
		{
			name: "no bags",
			in:   Weighing{GrossWeight: 1200.5, PerBagDeduction: 2},
			want: Weights{NetWeight: 1200.5},
		},
		{name: "zero gross", in: Weighing{}, wantErr: ErrGrossWeight},
		{name: "negative bags", in: Weighing{GrossWeight: 10, BagsCount: -1}, wantErr: ErrNegativeBags},
		{name: "negative quality", in: Weighing{GrossWeight: 10, QualityDeduction: -1}, wantErr: ErrNegativeDeduct},
		{name: "moisture over 100", in: Weighing{GrossWeight: 10, MoisturePercent: 101}, wantErr: ErrMoistureOutside},
		{
			name:    "deductions swallow gross",
			in:      Weighing{GrossWeight: 100, BagsCount: 40, PerBagDeduction: 2, QualityDeduction: 20},
			wantErr: ErrNetWeight,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Weigh(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettleWithoutAdvances(t *testing.T) {
	p, err := Settle(4875, 21.5, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 104812.5, p.TotalValue)
	assert.Zero(t, p.AdvanceDeducted)
	assert.Equal(t, 104812.5, p.FinalAmount)
	assert.Empty(t, p.Allocations)
}

func TestSettleConsumesAdvancesOldestFirst(t *testing.T) {
	advances := []Advance{
		{ID: 1, Outstanding: 3000},
		{ID: 2, Outstanding: 0},
		{ID: 3, Outstanding: 5000},
		{ID: 4, Outstanding: 9000},
	}
	p, err := Settle(500, 20, false, advances)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, p.TotalValue)
	assert.Equal(t, 10000.0, p.AdvanceDeducted)
	assert.Zero(t, p.FinalAmount)
	assert.Equal(t, []Allocation{
		{AdvanceID: 1, Amount: 3000},
		{AdvanceID: 3, Amount: 5000},
		{AdvanceID: 4, Amount: 2000},
	}, p.Allocations)
}

func TestSettlePartialOffset(t *testing.T) {
	p, err := Settle(1000, 18.75, false, []Advance{{ID: 9, Outstanding: 2500.25}})
	require.NoError(t, err)
	assert.Equal(t, 18750.0, p.TotalValue)
	assert.Equal(t, 2500.25, p.AdvanceDeducted)
	assert.Equal(t, 16249.75, p.FinalAmount)
}

func TestSettleRejectedGradeHasNoValue(t *testing.T) {
	p, err := Settle(1000, 20, true, []Advance{{ID: 1, Outstanding: 100}})
	require.NoError(t, err)
	assert.Zero(t, p.TotalValue)
	assert.Zero(t, p.AdvanceDeducted)
	assert.Empty(t, p.Allocations)
}

func TestSettleRejectsBadInput(t *testing.T) {
	_, err := Settle(1000, 0, false, nil)
	assert.ErrorIs(t, err, ErrPrice)

	_, err = Settle(0, 10, false, nil)
	assert.ErrorIs(t, err, ErrNetWeight)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005000001))
	assert.Equal(t, 2.5, Round2(2.4999999))
	assert.Equal(t, -1.5, Round2(-1.499999))
}
