package events

import (
	"fmt"
	"strings"
)

type poiBuilder func(id, name string, poi PointOfInterest) Definition

var poiBuilders = map[string]poiBuilder{
	"vault":           vaultEvent,
	"tech-hub":        techHubEvent,
	"rail-yard":       railYardEvent,
	"smuggling-cache": smugglingCacheEvent,
	"showroom":        showroomEvent,
	"impound-lot":     impoundLotEvent,
	"megacorp-lab":    megacorpLabEvent,
}

// BuildPOIEvent synthesizes one event flavored by the mission's point of
// interest. It returns nil when poi is nil or has no type. Unknown types or
// a missing id fall back to a generic template.
func BuildPOIEvent(poi *PointOfInterest) *Definition {
	if poi == nil {
		return nil
	}
	typ := strings.ToLower(strings.TrimSpace(poi.Type))
	if typ == "" {
		return nil
	}
	name := strings.TrimSpace(poi.Name)
	if name == "" {
		name = "the target"
	}
	id := strings.TrimSpace(poi.ID)
	build, ok := poiBuilders[typ]
	if !ok || id == "" {
		def := genericPOIEvent(id, name, *poi)
		return &def
	}
	def := build(id, name, *poi)
	return &def
}

func poiBase(id, typ, label, description string, progress float64) Definition {
	return Definition{
		ID:              fmt.Sprintf("poi-%s-%s", typ, id),
		Label:           label,
		Description:     description,
		Category:        "point-of-interest",
		TriggerProgress: progress,
		MinDifficulty:   1,
		MaxDifficulty:   10,
		BaseWeight:      1.25,
	}
}

func vaultEvent(id, name string, _ PointOfInterest) Definition {
	d := poiBase(id, "vault", fmt.Sprintf("%s Deposit Boxes", name),
		fmt.Sprintf("Behind the main vault at %s sits a wall of private deposit boxes nobody mentioned in the briefing.", name), 0.6)
	d.RiskTierWeights = map[RiskTier]float64{RiskHigh: 1.2}
	d.Choices = []Choice{
		{
			ID:          "sample-boxes",
			Label:       "Crack a few boxes",
			Description: "Pop a handful of boxes and keep the timeline intact.",
			Narrative:   fmt.Sprintf("The crew drills six boxes at %s and pockets what fits.", name),
			Effects:     Effects{PayoutDelta: 1200, DurationDelta: 1},
		},
		{
			ID:          "clear-wall",
			Label:       "Clear the whole wall",
			Description: "Empty every box and worry about the clock later.",
			Narrative:   fmt.Sprintf("Alarms wail through %s while the crew strips the wall bare.", name),
			Effects:     Effects{PayoutMultiplier: Float(1.35), HeatDelta: 3, DurationDelta: 3, SuccessDelta: -0.1},
		},
	}
	return d
}

func techHubEvent(id, name string, _ PointOfInterest) Definition {
	d := poiBase(id, "tech-hub", fmt.Sprintf("%s Server Farm", name),
		fmt.Sprintf("The servers at %s are mid-backup, exposing an unencrypted data stream.", name), 0.45)
	d.Choices = []Choice{
		{
			ID:          "skim-data",
			Label:       "Skim the stream",
			Description: "Siphon a slice of the backup without tripping monitors.",
			Narrative:   fmt.Sprintf("A quiet tap on the %s backup yields a drive full of credentials.", name),
			Effects:     Effects{PayoutDelta: 900, SuccessDelta: 0.02},
		},
		{
			ID:          "ransom-core",
			Label:       "Ransom the core",
			Description: "Lock the hub's core systems and demand payment.",
			Narrative:   fmt.Sprintf("Every screen at %s flashes the crew's ransom note.", name),
			Effects:     Effects{PayoutMultiplier: Float(1.4), HeatDelta: 4, SuccessDelta: -0.1},
		},
	}
	return d
}

func railYardEvent(id, name string, _ PointOfInterest) Definition {
	d := poiBase(id, "rail-yard", fmt.Sprintf("%s Freight Switch", name),
		fmt.Sprintf("A freight train is idling at %s with a cargo car left unsealed.", name), 0.65)
	d.Choices = []Choice{
		{
			ID:          "unload-quietly",
			Label:       "Unload quietly",
			Description: "Move a few crates before the yard crew returns.",
			Narrative:   fmt.Sprintf("Crates vanish from %s one at a time.", name),
			Effects:     Effects{PayoutDelta: 800, DurationDelta: 1},
		},
		{
			ID:          "hijack-car",
			Label:       "Hijack the car",
			Description: "Throw the switch and roll the whole car to a siding.",
			Narrative:   fmt.Sprintf("The car groans off the main line at %s and disappears down the spur.", name),
			Effects:     Effects{PayoutMultiplier: Float(1.3), HeatDelta: 3, DurationMultiplier: Float(1.2)},
		},
	}
	return d
}

func smugglingCacheEvent(id, name string, _ PointOfInterest) Definition {
	d := poiBase(id, "smuggling-cache", fmt.Sprintf("%s Hidden Cache", name),
		fmt.Sprintf("A smuggler's cache under %s turns up during the approach, still stocked.", name), 0.35)
	d.CrackdownTierWeights = map[CrackdownTier]float64{CrackdownCalm: 1.2}
	d.Choices = []Choice{
		{
			ID:          "take-share",
			Label:       "Take a share",
			Description: "Lift a modest cut the smugglers might not notice.",
			Narrative:   fmt.Sprintf("The crew skims the cache at %s and reseals the hatch.", name),
			Effects:     Effects{PayoutDelta: 700},
		},
		{
			ID:          "clean-out",
			Label:       "Clean it out",
			Description: "Take everything and deal with the smugglers later.",
			Narrative:   fmt.Sprintf("Nothing is left under %s but footprints.", name),
			Effects:     Effects{PayoutDelta: 2200, HeatDelta: 1, FutureDebt: true},
		},
	}
	return d
}

func showroomEvent(id, name string, _ PointOfInterest) Definition {
	d := poiBase(id, "showroom", fmt.Sprintf("%s Display Floor", name),
		fmt.Sprintf("A prototype car sits on the %s display floor with the keys in the ignition.", name), 0.55)
	d.Choices = []Choice{
		{
			ID:          "photograph-specs",
			Label:       "Photograph the specs",
			Description: "Grab the spec sheets for a buyer and leave the car.",
			Narrative:   fmt.Sprintf("A few camera clicks on the %s floor and the crew moves on.", name),
			Effects:     Effects{PayoutDelta: 600, SuccessDelta: 0.03},
		},
		{
			ID:          "drive-it-out",
			Label:       "Drive it out",
			Description: "Crash through the showroom glass in the prototype.",
			Narrative:   fmt.Sprintf("Glass rains across %s as the prototype roars into the street.", name),
			Effects:     Effects{PayoutMultiplier: Float(1.5), HeatDelta: 4, SuccessDelta: -0.12},
		},
	}
	return d
}

func impoundLotEvent(id, name string, _ PointOfInterest) Definition {
	d := poiBase(id, "impound-lot", fmt.Sprintf("%s Evidence Cage", name),
		fmt.Sprintf("The evidence cage at %s holds seized goods awaiting transfer.", name), 0.4)
	d.CrackdownTierWeights = map[CrackdownTier]float64{CrackdownLockdown: 0.7}
	d.Choices = []Choice{
		{
			ID:          "swap-tags",
			Label:       "Swap the tags",
			Description: "Re-tag a few crates so they ship to a friendly address.",
			Narrative:   fmt.Sprintf("Paperwork at %s quietly reroutes three crates.", name),
			Effects:     Effects{PayoutDelta: 1000, DurationDelta: 1, HeatDelta: -1},
		},
		{
			ID:          "cut-cage",
			Label:       "Cut the cage",
			Description: "Torch the cage open and grab everything.",
			Narrative:   fmt.Sprintf("Sparks fly in the %s cage while the crew loads up.", name),
			Effects:     Effects{PayoutMultiplier: Float(1.25), HeatDelta: 3},
		},
	}
	return d
}

func megacorpLabEvent(id, name string, _ PointOfInterest) Definition {
	d := poiBase(id, "megacorp-lab", fmt.Sprintf("%s Prototype Bench", name),
		fmt.Sprintf("A prototype rests unattended on a bench inside %s.", name), 0.5)
	d.DifficultyBandWeights = map[DifficultyBand]float64{BandHigh: 1.3}
	d.Choices = []Choice{
		{
			ID:          "copy-research",
			Label:       "Copy the research",
			Description: "Image the lab notes and leave the prototype.",
			Narrative:   fmt.Sprintf("Research from %s streams onto a crew drive.", name),
			Effects:     Effects{PayoutDelta: 1400, DurationDelta: 1},
		},
		{
			ID:          "seize-prototype",
			Label:       "Seize the prototype",
			Description: "Take the prototype itself and run.",
			Narrative:   fmt.Sprintf("Security at %s locks down seconds after the crew clears the door.", name),
			Effects:     Effects{PayoutMultiplier: Float(1.45), HeatDelta: 4, SuccessDelta: -0.1, CrewLoyaltyDelta: 1},
		},
	}
	return d
}

func genericPOIEvent(id, name string, poi PointOfInterest) Definition {
	key := id
	if key == "" {
		key = "unknown"
	}
	typ := strings.ToLower(strings.TrimSpace(poi.Type))
	desc := poi.Description
	if desc == "" {
		desc = fmt.Sprintf("An unexpected opening appears at %s.", name)
	}
	d := poiBase(key, "generic", fmt.Sprintf("Opportunity at %s", name), desc, 0.5)
	d.Category = "point-of-interest:" + typ
	d.Choices = []Choice{
		{
			ID:          "capitalize",
			Label:       "Capitalize",
			Description: "Push the advantage for a bigger take.",
			Narrative:   fmt.Sprintf("The crew presses its luck at %s.", name),
			Effects:     Effects{PayoutMultiplier: Float(1.2), HeatDelta: 2},
		},
		{
			ID:          "withdraw",
			Label:       "Withdraw",
			Description: "Leave the opening alone and stay on plan.",
			Narrative:   fmt.Sprintf("The crew lets the moment at %s pass.", name),
			Effects:     Effects{HeatDelta: -1},
		},
	}
	return d
}
