package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// at returns hour h on week day wd of the first week.
func at(h, wd int) SimulationTime {
	return SimulationTime{Hour: h, WeekDay: wd, Day: wd}
}

func newTestLocation(t *testing.T, id LocationID, typ LocationType, opts LocationStateOptions) *Location {
	t.Helper()
	loc, err := NewLocation(id, typ, opts, nil)
	require.NoError(t, err)
	return loc
}

func newTestPerson(t *testing.T, name string, age int, kind PersonKind, home LocationID) *Person {
	t.Helper()
	p, err := NewPerson(PersonConfig{
		ID:                       PersonID{Name: name, Age: age},
		Kind:                     kind,
		Home:                     home,
		RegulationComplianceProb: 1,
	})
	require.NoError(t, err)
	return p
}

// newTestRegistry registers the given locations in order.
func newTestRegistry(t *testing.T, locs ...*Location) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, l := range locs {
		require.NoError(t, reg.RegisterLocation(l))
	}
	return reg
}

func syncAll(reg *Registry, ts SimulationTime) {
	for _, id := range reg.LocationIDs() {
		reg.Location(id).Sync(ts)
	}
	reg.UpdateLocationSpecificInformation()
}

func makeCritical(p *Person) {
	p.setInfectionState(&IndividualInfectionState{Summary: SummaryCritical, IsHospitalized: true, ShowsSymptoms: true})
}
