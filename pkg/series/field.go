package series

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/iwvelando/finance-dashboard/pkg/mathutil"
)

// Record is one raw row of a dataset, keyed by source field names.
type Record map[string]any

// FieldKind classifies a field read from a record.
type FieldKind int

const (
	// FieldMissing is an absent, null or non-finite field.
	FieldMissing FieldKind = iota
	// FieldNumber is a finite numeric field.
	FieldNumber
	// FieldText is any other field, rendered verbatim.
	FieldText
)

// Field is the typed content of one record field.
type Field struct {
	kind   FieldKind
	number float64
	text   string
}

// Kind returns the field classification.
func (f Field) Kind() FieldKind { return f.kind }

// Number returns the numeric content and whether the field is numeric.
func (f Field) Number() (float64, bool) { return f.number, f.kind == FieldNumber }

// Text returns the verbatim content of a text field.
func (f Field) Text() string { return f.text }

// Value converts the field into a branch value; only numbers are Known.
func (f Field) Value() Value {
	if f.kind != FieldNumber {
		return Pending()
	}
	return Known(f.number)
}

// FieldOf classifies a raw value the same way record fields are read.
func FieldOf(v any) Field { return toField(v) }

func lookup(r Record, key string) any {
	if !strings.HasPrefix(key, "$") {
		return r[key]
	}
	v, err := jsonpath.Get(key, map[string]any(r))
	if err != nil {
		return nil
	}
	// jsonpath returns a list for wildcard and slice expressions; keep the
	// first match.
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

func toField(v any) Field {
	switch x := v.(type) {
	case nil:
		return Field{}
	case float64:
		return numberField(x)
	case float32:
		return numberField(float64(x))
	case int:
		return numberField(float64(x))
	case int8:
		return numberField(float64(x))
	case int16:
		return numberField(float64(x))
	case int32:
		return numberField(float64(x))
	case int64:
		return numberField(float64(x))
	case uint:
		return numberField(float64(x))
	case uint8:
		return numberField(float64(x))
	case uint16:
		return numberField(float64(x))
	case uint32:
		return numberField(float64(x))
	case uint64:
		return numberField(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Field{kind: FieldText, text: x.String()}
		}
		return numberField(f)
	case Value:
		if amount, ok := x.Get(); ok {
			return numberField(amount)
		}
		return Field{}
	case string:
		return Field{kind: FieldText, text: x}
	default:
		return Field{kind: FieldText, text: fmt.Sprint(x)}
	}
}

func numberField(x float64) Field {
	if !mathutil.IsFinite(x) {
		return Field{}
	}
	return Field{kind: FieldNumber, number: x}
}
