// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package cinema

import (
	"fmt"
	"math"
)

// Amount is a currency amount in cents.
type Amount int64

// maxAmount bounds conversions from floating point so that cents fit
// comfortably in an int64 with room for multiplication by a ticket
// count.
const maxAmount = 1e13

// AmountFromFloat converts a price expressed in currency units (120.5)
// to cents, rounding half away from zero. NaN, infinities, and values
// beyond a sane currency range are rejected.
func AmountFromFloat(value float64) (Amount, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	cents := math.Round(value * 100)
	if math.Abs(cents) > maxAmount {
		return 0, fmt.Errorf("%v is out of range", value)
	}
	return Amount(cents), nil
}

// Float64 returns the amount in currency units.
func (a Amount) Float64() float64 { return float64(a) / 100 }

// Times returns the amount multiplied by a ticket count. ok is false
// when the product does not fit in an int64.
func (a Amount) Times(count int64) (total Amount, ok bool) {
	if a == 0 || count == 0 {
		return 0, true
	}
	product := int64(a) * count
	if product/count != int64(a) || (count == -1 && a == math.MinInt64) {
		return 0, false
	}
	return Amount(product), true
}

func (a Amount) String() string {
	sign := ""
	cents := int64(a)
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
