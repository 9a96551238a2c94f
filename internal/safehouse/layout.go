package safehouse

import (
	"sort"
	"strings"
	"time"
)

// UnassignedZone is the assignment target for facilities kept out of every zone.
const UnassignedZone = "unassigned"

// LayoutSource records whether a layout was computed or edited by the player.
type LayoutSource string

const (
	SourceHeuristic LayoutSource = "heuristic"
	SourceCustom    LayoutSource = "custom"
)

const maxDefenseScore = 20

// Zone groups facilities that share a defensive perimeter.
type Zone struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	FacilityIDs  []string `json:"facilityIds"`
	DefenseScore int      `json:"defenseScore"`
	Ordinal      *int     `json:"ordinal,omitempty"`
}

// Layout assigns every live facility to a zone or to the unassigned list.
type Layout struct {
	SafehouseID           string            `json:"safehouseId"`
	Zones                 []Zone            `json:"zones"`
	ZoneOrder             []string          `json:"zoneOrder"`
	UnassignedFacilityIDs []string          `json:"unassignedFacilityIds,omitempty"`
	Source                LayoutSource      `json:"source"`
	UpdatedAt             int64             `json:"updatedAt"`
	AssignmentsByFacility map[string]string `json:"assignmentsByFacility"`
}

// Zone returns the zone with the given id.
func (l *Layout) Zone(id string) (Zone, bool) {
	if l == nil {
		return Zone{}, false
	}
	for _, z := range l.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// Clone returns a deep copy of the layout.
func (l *Layout) Clone() *Layout {
	if l == nil {
		return nil
	}
	out := *l
	out.Zones = make([]Zone, len(l.Zones))
	for i, z := range l.Zones {
		z.FacilityIDs = append([]string{}, z.FacilityIDs...)
		if z.Ordinal != nil {
			o := *z.Ordinal
			z.Ordinal = &o
		}
		out.Zones[i] = z
	}
	out.ZoneOrder = append([]string{}, l.ZoneOrder...)
	out.UnassignedFacilityIDs = append([]string(nil), l.UnassignedFacilityIDs...)
	out.AssignmentsByFacility = make(map[string]string, len(l.AssignmentsByFacility))
	for k, v := range l.AssignmentsByFacility {
		out.AssignmentsByFacility[k] = v
	}
	return &out
}

var canonicalZones = []struct{ id, label string }{
	{"operations", "Operations"},
	{"logistics", "Logistics"},
	{"security", "Security"},
	{"support", "Support"},
}

var zoneKeywords = []struct {
	zone     string
	keywords []string
}{
	{"operations", []string{"ops", "command", "terminal", "theater"}},
	{"logistics", []string{"dead-drop", "courier", "network", "logistics"}},
	{"security", []string{"rapid-response", "security", "armory", "vault"}},
}

// heuristicZone picks a zone by substring match on the facility id.
func heuristicZone(facilityID string) string {
	for _, zk := range zoneKeywords {
		for _, kw := range zk.keywords {
			if strings.Contains(facilityID, kw) {
				return zk.zone
			}
		}
	}
	return "support"
}

func normalizeZoneID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

type zoneSlot struct {
	id         string
	label      string
	ordinal    *int
	savedScore *int
	facilities []string
}

// BuildLayout reconciles a saved layout with the safehouse's live facility
// list. Every live facility ends up in exactly one zone or in
// UnassignedFacilityIDs. saved may be nil.
func BuildLayout(sh Safehouse, saved *Layout, now time.Time) *Layout {
	facilities := liveFacilityIDs(sh)

	assignments := make(map[string]string)
	if saved != nil {
		for _, fid := range saved.UnassignedFacilityIDs {
			if id := normalizeFacilityID(fid); id != "" {
				assignments[id] = UnassignedZone
			}
		}
		for _, z := range saved.Zones {
			zid := normalizeZoneID(z.ID)
			if zid == "" {
				continue
			}
			for _, fid := range z.FacilityIDs {
				if id := normalizeFacilityID(fid); id != "" {
					assignments[id] = zid
				}
			}
		}
		for fid, zid := range saved.AssignmentsByFacility {
			id, zone := normalizeFacilityID(fid), normalizeZoneID(zid)
			if id != "" && zone != "" {
				assignments[id] = zone
			}
		}
	}

	slots := make(map[string]*zoneSlot)
	var slotOrder []string
	register := func(id, label string) *zoneSlot {
		if s, ok := slots[id]; ok {
			return s
		}
		if label == "" {
			label = titleize(id)
		}
		s := &zoneSlot{id: id, label: label}
		slots[id] = s
		slotOrder = append(slotOrder, id)
		return s
	}
	for _, cz := range canonicalZones {
		register(cz.id, cz.label)
	}
	if saved != nil {
		for _, z := range saved.Zones {
			zid := normalizeZoneID(z.ID)
			if zid == "" || zid == UnassignedZone {
				continue
			}
			s := register(zid, strings.TrimSpace(z.Label))
			if label := strings.TrimSpace(z.Label); label != "" {
				s.label = label
			}
			if z.Ordinal != nil {
				o := *z.Ordinal
				s.ordinal = &o
			}
			score := min(max(z.DefenseScore, 0), maxDefenseScore)
			s.savedScore = &score
		}
		for _, zid := range assignments {
			if zid != UnassignedZone {
				register(zid, "")
			}
		}
	}

	out := &Layout{
		SafehouseID:           safehouseID(sh),
		AssignmentsByFacility: make(map[string]string, len(facilities)),
	}
	for _, fid := range facilities {
		zid, ok := assignments[fid]
		if !ok {
			zid = heuristicZone(fid)
		}
		out.AssignmentsByFacility[fid] = zid
		if zid == UnassignedZone {
			out.UnassignedFacilityIDs = append(out.UnassignedFacilityIDs, fid)
			continue
		}
		s := slots[zid]
		s.facilities = append(s.facilities, fid)
	}

	out.ZoneOrder = zoneOrder(saved, slots, slotOrder)
	out.Zones = make([]Zone, 0, len(out.ZoneOrder))
	for _, zid := range out.ZoneOrder {
		s := slots[zid]
		z := Zone{ID: s.id, Label: s.label, FacilityIDs: append([]string{}, s.facilities...), Ordinal: s.ordinal}
		if s.savedScore != nil {
			z.DefenseScore = *s.savedScore
		} else {
			z.DefenseScore = len(s.facilities)
		}
		out.Zones = append(out.Zones, z)
	}

	if saved != nil && saved.Source == SourceCustom && saved.UpdatedAt > 0 {
		out.Source = SourceCustom
		out.UpdatedAt = saved.UpdatedAt
	} else {
		out.Source = SourceHeuristic
		out.UpdatedAt = now.UnixMilli()
	}
	return out
}

func zoneOrder(saved *Layout, slots map[string]*zoneSlot, registered []string) []string {
	var preferred []string
	if saved != nil {
		if len(saved.ZoneOrder) > 0 {
			preferred = saved.ZoneOrder
		} else {
			for _, z := range saved.Zones {
				preferred = append(preferred, z.ID)
			}
		}
	}

	remaining := append([]string(nil), registered...)
	sort.SliceStable(remaining, func(i, j int) bool {
		li, lj := strings.ToLower(slots[remaining[i]].label), strings.ToLower(slots[remaining[j]].label)
		if li != lj {
			return li < lj
		}
		return remaining[i] < remaining[j]
	})

	order := make([]string, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, raw := range preferred {
		zid := normalizeZoneID(raw)
		if _, known := slots[zid]; !known {
			continue
		}
		if _, dup := seen[zid]; dup {
			continue
		}
		seen[zid] = struct{}{}
		order = append(order, zid)
	}
	for _, zid := range remaining {
		if _, dup := seen[zid]; dup {
			continue
		}
		seen[zid] = struct{}{}
		order = append(order, zid)
	}
	return order
}
