package mathutil

import (
	"github.com/shopspring/decimal"
)

// Accumulator sums float values exactly. The zero value is ready to use.
type Accumulator struct {
	total decimal.Decimal
	count int
}

// Add adds val to the running total.
func (a *Accumulator) Add(val float64) {
	a.total = a.total.Add(decimal.NewFromFloat(val))
	a.count++
}

// Count returns how many values were added.
func (a *Accumulator) Count() int {
	return a.count
}

// Decimal returns the exact total.
func (a *Accumulator) Decimal() decimal.Decimal {
	return a.total
}

// Float returns the total as the nearest float64.
func (a *Accumulator) Float() float64 {
	return a.total.InexactFloat64()
}

// Sum returns the exact sum of values as a float64. An empty slice sums to 0.
func Sum(values []float64) float64 {
	var acc Accumulator
	for _, v := range values {
		acc.Add(v)
	}
	return acc.Float()
}
