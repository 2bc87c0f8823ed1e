package series

import (
	"errors"
	"fmt"
	"strings"
)

// Branch identifies one logical series within a point.
type Branch int

// Branches in rendering z-order.
const (
	Actual Branch = iota
	Base
	Optimistic
	Pessimistic
)

// AllBranches lists every branch in z-order.
var AllBranches = []Branch{Actual, Base, Optimistic, Pessimistic}

var branchNames = [...]string{"actual", "base", "optimistic", "pessimistic"}

func (b Branch) String() string {
	if b < Actual || b > Pessimistic {
		return fmt.Sprintf("branch(%d)", int(b))
	}
	return branchNames[b]
}

// ParseBranch converts a branch name back into a Branch.
func ParseBranch(name string) (Branch, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i, n := range branchNames {
		if n == needle {
			return Branch(i), nil
		}
	}
	return 0, fmt.Errorf("unknown branch %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (b Branch) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Branch) UnmarshalText(text []byte) error {
	parsed, err := ParseBranch(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ErrMissingBranchKey is returned when a mandatory branch has no key.
var ErrMissingBranchKey = errors.New("missing branch key")

// BranchKeyMap names the record field supplying each branch. Base, Optimistic
// and Pessimistic are mandatory; Actual is optional. A key starting with "$"
// is evaluated as a JSONPath expression against the record.
type BranchKeyMap struct {
	Actual      string `yaml:"actual,omitempty" json:"actual,omitempty"`
	Base        string `yaml:"base" json:"base"`
	Optimistic  string `yaml:"optimistic" json:"optimistic"`
	Pessimistic string `yaml:"pessimistic" json:"pessimistic"`
}

// DefaultKeys maps every branch to its own name.
func DefaultKeys() BranchKeyMap {
	return BranchKeyMap{
		Actual:      "actual",
		Base:        "base",
		Optimistic:  "optimistic",
		Pessimistic: "pessimistic",
	}
}

// Validate checks that every mandatory branch has a key.
func (m BranchKeyMap) Validate() error {
	var missing []string
	for _, b := range []Branch{Base, Optimistic, Pessimistic} {
		if key, _ := m.Key(b); key == "" {
			missing = append(missing, b.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingBranchKey, strings.Join(missing, ", "))
	}
	return nil
}

// Key returns the field name for b and whether the branch is present.
func (m BranchKeyMap) Key(b Branch) (string, bool) {
	var key string
	switch b {
	case Actual:
		key = m.Actual
	case Base:
		key = m.Base
	case Optimistic:
		key = m.Optimistic
	case Pessimistic:
		key = m.Pessimistic
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

// Present returns the branches with a key, in z-order.
func (m BranchKeyMap) Present() []Branch {
	present := make([]Branch, 0, len(AllBranches))
	for _, b := range AllBranches {
		if _, ok := m.Key(b); ok {
			present = append(present, b)
		}
	}
	return present
}
