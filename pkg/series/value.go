package series

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/iwvelando/finance-dashboard/pkg/mathutil"
)

// Value is one branch value of a period: either Known with an amount or
// Pending (the period has not occurred or the source has no figure).
// The zero Value is Pending.
type Value struct {
	amount float64
	known  bool
}

// Known returns a known value. Non-finite amounts are treated as Pending.
func Known(amount float64) Value {
	if !mathutil.IsFinite(amount) {
		return Value{}
	}
	return Value{amount: amount, known: true}
}

// Pending returns a value without an amount.
func Pending() Value {
	return Value{}
}

// Get returns the amount and whether the value is known.
func (v Value) Get() (float64, bool) {
	return v.amount, v.known
}

// IsKnown reports whether the value carries an amount.
func (v Value) IsKnown() bool {
	return v.known
}

// Ptr returns a pointer to a copy of the amount, or nil when pending.
func (v Value) Ptr() *float64 {
	if !v.known {
		return nil
	}
	amount := v.amount
	return &amount
}

func (v Value) String() string {
	if !v.known {
		return "pending"
	}
	return strconv.FormatFloat(v.amount, 'f', -1, 64)
}

// MarshalJSON encodes a pending value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.known {
		return []byte("null"), nil
	}
	return json.Marshal(v.amount)
}

// UnmarshalJSON decodes null as Pending.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Pending()
		return nil
	}
	var amount float64
	if err := json.Unmarshal(data, &amount); err != nil {
		return err
	}
	*v = Known(amount)
	return nil
}
