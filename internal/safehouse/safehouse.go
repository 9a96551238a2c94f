// Safehouse incursion alerts and defense scenario bookkeeping.
package safehouse

import "strings"

// Facility is an installed amenity or active project at a safehouse.
type Facility struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Safehouse is the view of a safehouse record the engine consumes.
type Safehouse interface {
	ID() string
	Name() string
	Location() string
	UnlockedAmenities() []Facility
	ActiveProjects() []Facility
}

// Record is a plain Safehouse implementation for callers without their own
// safehouse type.
type Record struct {
	SafehouseID string     `yaml:"id" json:"id"`
	DisplayName string     `yaml:"name" json:"name"`
	Area        string     `yaml:"location,omitempty" json:"location,omitempty"`
	Amenities   []Facility `yaml:"amenities,omitempty" json:"amenities,omitempty"`
	Projects    []Facility `yaml:"projects,omitempty" json:"projects,omitempty"`
}

func (r *Record) ID() string                    { return r.SafehouseID }
func (r *Record) Name() string                  { return r.DisplayName }
func (r *Record) Location() string              { return r.Area }
func (r *Record) UnlockedAmenities() []Facility { return r.Amenities }
func (r *Record) ActiveProjects() []Facility    { return r.Projects }

func normalizeFacilityID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// liveFacilities returns the distinct normalized facilities of sh, amenities
// first, in declaration order.
func liveFacilities(sh Safehouse) []Facility {
	if sh == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []Facility
	for _, group := range [][]Facility{sh.UnlockedAmenities(), sh.ActiveProjects()} {
		for _, f := range group {
			id := normalizeFacilityID(f.ID)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, Facility{ID: id, Name: f.Name})
		}
	}
	return out
}

func liveFacilityIDs(sh Safehouse) []string {
	facilities := liveFacilities(sh)
	ids := make([]string, len(facilities))
	for i, f := range facilities {
		ids[i] = f.ID
	}
	return ids
}

func safehouseID(sh Safehouse) string {
	if sh == nil {
		return ""
	}
	return strings.TrimSpace(sh.ID())
}
