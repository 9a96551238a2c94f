package scenario

import (
	"heist-engine/internal/crew"
	"heist-engine/internal/events"
	"heist-engine/internal/safehouse"
)

// BuiltIn returns predefined campaign seeds keyed by name.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"harbor-job": {
			Name:        "Harbor Job",
			Description: "A fresh crew works the docks out of a cramped warehouse while port police start paying attention.",
			Funds:       12000,
			HeatTier:    "alert",
			Safehouse: safehouse.Record{
				SafehouseID: "dockside-warehouse",
				DisplayName: "Dockside Warehouse",
				Area:        "Harbor District",
				Amenities: []safehouse.Facility{
					{ID: "armory", Name: "Armory"},
					{ID: "ops-terminal", Name: "Ops Terminal"},
				},
				Projects: []safehouse.Facility{
					{ID: "courier-relay", Name: "Courier Relay"},
				},
			},
			Crew: []crew.Member{
				{ID: "vega", Name: "Vega", Loyalty: 2, Background: crew.Background{ID: "wheelman", Name: "Wheelman"}, Traits: map[string]int{"driving": 3}},
				{ID: "moss", Name: "Moss", Loyalty: 1, Background: crew.Background{ID: "hacker", Name: "Hacker"}, Traits: map[string]int{"tech": 3}},
				{ID: "hale", Name: "Hale", Loyalty: 3, Background: crew.Background{ID: "ex-cop", Name: "Ex-Cop"}, Traits: map[string]int{"tactics": 2}},
			},
			Missions: []events.Mission{
				{ID: "container-swap", Name: "Container Swap", Difficulty: 2, RiskTier: "low", CrackdownTier: "calm", CrewIDs: []string{"vega", "moss"}},
				{
					ID: "customs-vault", Name: "Customs Vault", Difficulty: 4, RiskTier: "high", CrackdownTier: "alert",
					PointOfInterest: &events.PointOfInterest{ID: "customs-vault", Name: "Customs Vault", Type: "vault"},
					CrewIDs:         []string{"vega", "moss", "hale"},
				},
			},
			Beats: []Beat{
				{MissionID: "container-swap", CrewIDs: []string{"vega", "moss"}, Band: crew.BandSynergy, Entered: true},
				{MissionID: "customs-vault", CrewIDs: []string{"moss", "hale"}, Band: crew.BandStrain, Entered: true},
			},
		},
		"tech-heist": {
			Name:        "Tech Heist",
			Description: "Lift a prototype from a megacorp lab, staged out of a penthouse with a growing relay network.",
			Funds:       30000,
			HeatTier:    "calm",
			Safehouse: safehouse.Record{
				SafehouseID: "glass-penthouse",
				DisplayName: "Glass Penthouse",
				Area:        "Uptown",
				Amenities: []safehouse.Facility{
					{ID: "command-center", Name: "Command Center"},
					{ID: "dead-drop-network", Name: "Dead Drop Network"},
				},
				Projects: []safehouse.Facility{
					{ID: "rapid-response-cell", Name: "Rapid Response Cell"},
				},
			},
			Crew: []crew.Member{
				{ID: "moss", Name: "Moss", Loyalty: 2, Background: crew.Background{ID: "hacker", Name: "Hacker"}, Traits: map[string]int{"tech": 4}},
				{ID: "juno", Name: "Juno", Loyalty: 1, Traits: map[string]int{"stealth": 3}},
			},
			Missions: []events.Mission{
				{
					ID: "lab-recon", Name: "Lab Recon", Difficulty: 3, RiskTier: "moderate", CrackdownTier: "calm",
					PointOfInterest: &events.PointOfInterest{ID: "helix-lab", Name: "Helix Lab", Type: "megacorp-lab"},
					CrewIDs:         []string{"moss", "juno"},
				},
			},
		},
		"crackdown-run": {
			Name:        "Crackdown Run",
			Description: "The city is locked down and the crew needs one last score before the safehouse is found.",
			Funds:       4000,
			HeatTier:    "lockdown",
			Safehouse: safehouse.Record{
				SafehouseID: "rail-tunnel",
				DisplayName: "Abandoned Rail Tunnel",
				Area:        "Old Line",
				Amenities: []safehouse.Facility{
					{ID: "armory", Name: "Armory"},
					{ID: "dead-drop-network", Name: "Dead Drop Network"},
				},
			},
			Crew: []crew.Member{
				{ID: "vega", Name: "Vega", Loyalty: 4, Background: crew.Background{ID: "wheelman", Name: "Wheelman"}, Traits: map[string]int{"driving": 4}},
				{ID: "hale", Name: "Hale", Loyalty: 2, Background: crew.Background{ID: "ex-cop", Name: "Ex-Cop"}, Traits: map[string]int{"tactics": 3}},
			},
			Missions: []events.Mission{
				{
					ID: "impound-breakout", Name: "Impound Breakout", Difficulty: 5, RiskTier: "high", ActiveCrackdownTier: "lockdown",
					PointOfInterest: &events.PointOfInterest{ID: "north-impound", Name: "North Impound", Type: "impound-lot"},
					CrewIDs:         []string{"vega", "hale"},
				},
			},
			Beats: []Beat{
				{MissionID: "impound-breakout", CrewIDs: []string{"hale", "vega"}, Band: crew.BandSynergy, Entered: true},
			},
		},
	}
}
