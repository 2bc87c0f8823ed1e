package series

import (
	"encoding/json"
	"errors"
	"testing"
)

func forecastRecords() []Record {
	return []Record{
		{"month": "Янв", "фактический": 12500000, "базовый": 13000000, "оптимистичный": 14000000, "пессимистичный": 11000000},
		{"month": "Фев", "фактический": nil, "базовый": 13500000, "оптимистичный": 14500000, "пессимистичный": 11500000},
	}
}

func localizedKeys() BranchKeyMap {
	return BranchKeyMap{
		Actual:      "фактический",
		Base:        "базовый",
		Optimistic:  "оптимистичный",
		Pessimistic: "пессимистичный",
	}
}

func TestNewKeepsOrder(t *testing.T) {
	records := []Record{
		{"month": "Мар", "base": 3},
		{"month": "Янв", "base": 1},
		{"month": "Фев", "base": 2},
	}
	s, err := New("order", "month", records)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := s.Periods()
	expected := []string{"Мар", "Янв", "Фев"}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("Periods() = %v, expected %v", got, expected)
		}
	}
}

func TestNewRejectsDuplicatePeriod(t *testing.T) {
	_, err := New("dup", "month", []Record{{"month": "Янв"}, {"month": "Янв"}})
	if !errors.Is(err, ErrDuplicatePeriod) {
		t.Fatalf("expected ErrDuplicatePeriod, got %v", err)
	}
}

func TestNewRejectsMissingPeriod(t *testing.T) {
	if _, err := New("missing", "month", []Record{{"base": 1}}); err == nil {
		t.Fatal("expected error for record without period")
	}
	if _, err := New("empty key", "", nil); err == nil {
		t.Fatal("expected error for empty period key")
	}
}

func TestNewCopiesRecords(t *testing.T) {
	records := forecastRecords()
	s := MustNew("copy", "month", records)
	records[0]["базовый"] = 1

	v, _ := s.Branch(0, localizedKeys(), Base)
	if amount, _ := v.Get(); amount != 13000000 {
		t.Errorf("series changed with its source records: base = %v", amount)
	}

	out := s.Records()
	out[0]["базовый"] = 2
	v, _ = s.Branch(0, localizedKeys(), Base)
	if amount, _ := v.Get(); amount != 13000000 {
		t.Errorf("series changed through Records(): base = %v", amount)
	}
}

func TestBranchResolvesLocalizedKeys(t *testing.T) {
	s := MustNew("revenue", "month", forecastRecords())
	keys := localizedKeys()

	actual, present := s.Branch(0, keys, Actual)
	if !present {
		t.Fatal("expected actual branch to be present")
	}
	if amount, ok := actual.Get(); !ok || amount != 12500000 {
		t.Errorf("actual Jan = %v, %v", amount, ok)
	}

	pending, _ := s.Branch(1, keys, Actual)
	if pending.IsKnown() {
		t.Errorf("expected pending actual for Feb, got %v", pending)
	}

	keys.Actual = ""
	if _, present := s.Branch(0, keys, Actual); present {
		t.Error("expected actual branch to be absent without a key")
	}
}

func TestFieldKinds(t *testing.T) {
	s := MustNew("kinds", "month", []Record{
		{"month": "Янв", "num": 5, "float": 2.5, "text": "3.2%", "null": nil},
	})

	if f := s.Field(0, "num"); f.Kind() != FieldNumber {
		t.Errorf("num kind = %v", f.Kind())
	}
	if n, ok := s.Field(0, "float").Number(); !ok || n != 2.5 {
		t.Errorf("float = %v, %v", n, ok)
	}
	if f := s.Field(0, "text"); f.Kind() != FieldText || f.Text() != "3.2%" {
		t.Errorf("text = %v %q", f.Kind(), f.Text())
	}
	if f := s.Field(0, "null"); f.Kind() != FieldMissing {
		t.Errorf("null kind = %v", f.Kind())
	}
	if f := s.Field(0, "absent"); f.Kind() != FieldMissing {
		t.Errorf("absent kind = %v", f.Kind())
	}
	if v := s.Field(0, "text").Value(); v.IsKnown() {
		t.Error("text field must not convert to a known value")
	}
}

func TestJSONPathKeys(t *testing.T) {
	s := MustNew("nested", "month", []Record{
		{"month": "Янв", "scenarios": map[string]any{"base": 10, "high": 12, "low": 8}},
	})
	keys := BranchKeyMap{
		Base:        "$.scenarios.base",
		Optimistic:  "$.scenarios.high",
		Pessimistic: "$.scenarios.low",
	}
	p := s.Points(keys)[0]
	if amount, ok := p.Optimistic.Get(); !ok || amount != 12 {
		t.Errorf("optimistic = %v, %v", amount, ok)
	}
	if p.Actual.IsKnown() {
		t.Error("actual should be pending without a key")
	}

	bad := BranchKeyMap{Base: "$.nope.base", Optimistic: "$.scenarios.high", Pessimistic: "$.scenarios.low"}
	if s.Points(bad)[0].Base.IsKnown() {
		t.Error("unresolvable JSONPath should read as pending")
	}
}

func TestValidateKeys(t *testing.T) {
	if err := DefaultKeys().Validate(); err != nil {
		t.Fatalf("DefaultKeys().Validate() = %v", err)
	}

	noActual := DefaultKeys()
	noActual.Actual = ""
	if err := noActual.Validate(); err != nil {
		t.Errorf("actual is optional, got %v", err)
	}

	missing := BranchKeyMap{Base: "b"}
	err := missing.Validate()
	if !errors.Is(err, ErrMissingBranchKey) {
		t.Fatalf("expected ErrMissingBranchKey, got %v", err)
	}
}

func TestPresentOrder(t *testing.T) {
	keys := BranchKeyMap{Pessimistic: "p", Base: "b", Optimistic: "o"}
	present := keys.Present()
	expected := []Branch{Base, Optimistic, Pessimistic}
	if len(present) != len(expected) {
		t.Fatalf("Present() = %v", present)
	}
	for i := range expected {
		if present[i] != expected[i] {
			t.Errorf("Present()[%d] = %v, expected %v", i, present[i], expected[i])
		}
	}
}

func TestFromPointsRoundTrip(t *testing.T) {
	points := []Point{
		{Period: "Jan", Actual: Known(100), Base: Known(100), Optimistic: Known(110), Pessimistic: Known(90)},
		{Period: "Feb", Actual: Pending(), Base: Known(120), Optimistic: Known(135), Pessimistic: Known(100)},
	}
	s, err := FromPoints("demo", points)
	if err != nil {
		t.Fatalf("FromPoints() error = %v", err)
	}
	got := s.Points(DefaultKeys())
	for i := range points {
		for _, b := range AllBranches {
			if got[i].Value(b) != points[i].Value(b) {
				t.Errorf("period %s branch %s = %v, expected %v", points[i].Period, b, got[i].Value(b), points[i].Value(b))
			}
		}
	}
}

func TestCheckOrdering(t *testing.T) {
	s, err := FromPoints("check", []Point{
		{Period: "Jan", Base: Known(100), Optimistic: Known(110), Pessimistic: Known(90)},
		{Period: "Feb", Base: Known(100), Optimistic: Known(95), Pessimistic: Known(105)},
		{Period: "Mar", Base: Pending(), Optimistic: Known(1), Pessimistic: Known(2)},
	})
	if err != nil {
		t.Fatalf("FromPoints() error = %v", err)
	}
	warnings := s.Check(DefaultKeys())
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{Known(1.5), Pending()})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "[1.5,null]" {
		t.Errorf("Marshal() = %s", data)
	}

	var decoded []Value
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !decoded[0].IsKnown() || decoded[1].IsKnown() {
		t.Errorf("Unmarshal() = %v", decoded)
	}
}

func TestBranchNames(t *testing.T) {
	for _, b := range AllBranches {
		parsed, err := ParseBranch(b.String())
		if err != nil || parsed != b {
			t.Errorf("ParseBranch(%s) = %v, %v", b, parsed, err)
		}
	}
	if _, err := ParseBranch("median"); err == nil {
		t.Error("expected error for unknown branch")
	}
}
