package sim

import "fmt"

// LocationID identifies a registered location.
type LocationID string

// PersonID identifies a registered person. Age is fixed at creation.
type PersonID struct {
	Name string
	Age  int
}

func (id PersonID) String() string {
	return fmt.Sprintf("%s(%d)", id.Name, id.Age)
}

// Less orders ids by name, then age. Used to normalize unordered pairs.
func (id PersonID) Less(other PersonID) bool {
	if id.Name != other.Name {
		return id.Name < other.Name
	}
	return id.Age < other.Age
}

// Risk is the infection risk tier of a person.
type Risk string

const (
	RiskLow  Risk = "low"
	RiskHigh Risk = "high"
)

// Risks lists the tiers in a stable order.
var Risks = []Risk{RiskLow, RiskHigh}

// IsValidRisk reports whether r names a known tier.
func IsValidRisk(r Risk) bool {
	return r == RiskLow || r == RiskHigh
}
