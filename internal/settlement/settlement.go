// Package settlement holds the weighing and payment arithmetic for deliveries.
package settlement

import (
	"errors"
	"math"
)

var (
	ErrGrossWeight     = errors.New("gross weight must be greater than zero")
	ErrNegativeBags    = errors.New("bags count cannot be negative")
	ErrNegativeDeduct  = errors.New("deductions cannot be negative")
	ErrNetWeight       = errors.New("deductions exceed gross weight")
	ErrPrice           = errors.New("price per kg must be greater than zero")
	ErrMoistureOutside = errors.New("moisture must be between 0 and 100 percent")
)

// Weighing is what the weighbridge and the grader report for one delivery.
type Weighing struct {
	GrossWeight      float64
	BagsCount        int
	PerBagDeduction  float64
	QualityDeduction float64
	MoisturePercent  float64
	Rejected         bool
}

type Weights struct {
	StandardDeduction float64 `json:"standard_deduction"`
	QualityDeduction  float64 `json:"quality_deduction"`
	NetWeight         float64 `json:"net_weight"`
}

// Weigh turns raw weighbridge figures into deductions and a net weight.
func Weigh(w Weighing) (Weights, error) {
	if w.GrossWeight <= 0 {
		return Weights{}, ErrGrossWeight
	}
	if w.BagsCount < 0 {
		return Weights{}, ErrNegativeBags
	}
	if w.PerBagDeduction < 0 || w.QualityDeduction < 0 {
		return Weights{}, ErrNegativeDeduct
	}
	if w.MoisturePercent < 0 || w.MoisturePercent > 100 {
		return Weights{}, ErrMoistureOutside
	}

	standard := Round2(float64(w.BagsCount) * w.PerBagDeduction)
	net := Round2(w.GrossWeight - standard - w.QualityDeduction)
	if net <= 0 {
		return Weights{}, ErrNetWeight
	}
	return Weights{
		StandardDeduction: standard,
		QualityDeduction:  Round2(w.QualityDeduction),
		NetWeight:         net,
	}, nil
}

// Advance is an outstanding advance eligible for offset, oldest first.
type Advance struct {
	ID          uint
	Outstanding float64
}

type Allocation struct {
	AdvanceID uint    `json:"advance_id"`
	Amount    float64 `json:"amount"`
}

type Payment struct {
	TotalValue      float64      `json:"total_value"`
	AdvanceDeducted float64      `json:"advance_deducted"`
	FinalAmount     float64      `json:"final_amount"`
	Allocations     []Allocation `json:"allocations"`
}

// Settle prices the net weight and offsets outstanding advances against it.
// Advances are consumed in the order given; the offset never exceeds the value.
func Settle(netWeight, pricePerKg float64, rejected bool, advances []Advance) (Payment, error) {
	if pricePerKg <= 0 {
		return Payment{}, ErrPrice
	}
	if netWeight <= 0 {
		return Payment{}, ErrNetWeight
	}

	total := Round2(netWeight * pricePerKg)
	if rejected {
		total = 0
	}

	p := Payment{TotalValue: total}
	remaining := total
	for _, adv := range advances {
		if remaining <= 0 {
			break
		}
		if adv.Outstanding <= 0 {
			continue
		}
		take := Round2(math.Min(adv.Outstanding, remaining))
		p.Allocations = append(p.Allocations, Allocation{AdvanceID: adv.ID, Amount: take})
		p.AdvanceDeducted = Round2(p.AdvanceDeducted + take)
		remaining = Round2(remaining - take)
	}
	p.FinalAmount = Round2(total - p.AdvanceDeducted)
	return p, nil
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
