package events

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var builtIn = sync.OnceValue(func() []Definition { return missionEventTable() })

var builtInIndex = sync.OnceValue(func() map[string]Definition {
	idx := make(map[string]Definition)
	for _, d := range builtIn() {
		idx[d.ID] = d
	}
	return idx
})

// BuiltIn returns the static mission event table. The slice is shared;
// callers clone entries before mutating them.
func BuiltIn() []Definition {
	return builtIn()
}

// Lookup returns a clone of the built-in definition with the given id.
func Lookup(id string) (Definition, bool) {
	d, ok := builtInIndex()[id]
	if !ok {
		return Definition{}, false
	}
	return d.Clone(), true
}

type tableFile struct {
	Events []Definition `yaml:"events"`
}

// LoadTable reads a YAML event table from disk.
func LoadTable(path string) ([]Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event table: %w", err)
	}
	var f tableFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse event table: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Events))
	for i, d := range f.Events {
		if d.ID == "" {
			return nil, fmt.Errorf("event %d: missing id", i)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("event %s: duplicate id", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return f.Events, nil
}

func missionEventTable() []Definition {
	allRisk := []RiskTier{RiskLow, RiskModerate, RiskHigh}
	allCrackdown := []CrackdownTier{CrackdownCalm, CrackdownAlert, CrackdownLockdown}
	return []Definition{
		{
			ID:                    "patrol-sweep",
			Label:                 "Unexpected Patrol Sweep",
			Description:           "A patrol cruiser rolls through the block ahead of schedule, lights off and windows down.",
			TriggerProgress:       0.3,
			MinDifficulty:         1,
			MaxDifficulty:         10,
			RiskTiers:             allRisk,
			CrackdownTiers:        allCrackdown,
			BaseWeight:            1,
			DifficultyBandWeights: map[DifficultyBand]float64{BandLow: 1.2, BandHigh: 0.8},
			CrackdownTierWeights:  map[CrackdownTier]float64{CrackdownCalm: 0.8, CrackdownAlert: 1.2, CrackdownLockdown: 1.5},
			Choices: []Choice{
				{
					ID:          "hold-position",
					Label:       "Hold position",
					Description: "Kill the engines and wait for the cruiser to pass.",
					Narrative:   "The crew sits in silence while the cruiser idles past. Precious minutes tick away.",
					Effects:     Effects{DurationDelta: 1, HeatDelta: -1},
				},
				{
					ID:          "slip-past",
					Label:       "Slip past",
					Description: "Keep moving and trust the disguise.",
					Narrative:   "A nod to the officer and the van keeps rolling. Someone noted the plate.",
					Effects:     Effects{HeatDelta: 2, SuccessDelta: -0.05},
				},
			},
		},
		{
			ID:                    "inside-contact",
			Label:                 "Inside Contact Wavers",
			Description:           "Your inside contact calls in a panic and wants more money to keep the side door open.",
			TriggerProgress:       0.45,
			MinDifficulty:         1,
			MaxDifficulty:         6,
			RiskTiers:             []RiskTier{RiskLow, RiskModerate},
			CrackdownTiers:        allCrackdown,
			BaseWeight:            0.9,
			DifficultyBandWeights: map[DifficultyBand]float64{BandMid: 1.1},
			RiskTierWeights:       map[RiskTier]float64{RiskLow: 1.2},
			Choices: []Choice{
				{
					ID:          "pay-off",
					Label:       "Pay the contact",
					Description: "Cut the contact in for a bigger slice.",
					Narrative:   "The contact pockets the extra share and the door stays unlocked.",
					Effects:     Effects{PayoutMultiplier: Float(0.9), SuccessDelta: 0.05},
				},
				{
					ID:          "lean-on",
					Label:       "Lean on them",
					Description: "Remind the contact what happens to people who back out.",
					Narrative:   "The threat works, but the contact will remember this.",
					Effects:     Effects{HeatDelta: 1, FutureDebt: true},
				},
			},
		},
		{
			ID:                   "armored-response",
			Label:                "Armored Response Team",
			Description:          "Dispatch chatter confirms an armored response unit is rolling toward the site.",
			TriggerProgress:      0.7,
			MinDifficulty:        3,
			MaxDifficulty:        10,
			RiskTiers:            []RiskTier{RiskModerate, RiskHigh},
			CrackdownTiers:       []CrackdownTier{CrackdownAlert, CrackdownLockdown},
			BaseWeight:           1.1,
			RiskTierWeights:      map[RiskTier]float64{RiskHigh: 1.5},
			CrackdownTierWeights: map[CrackdownTier]float64{CrackdownLockdown: 1.4},
			Choices: []Choice{
				{
					ID:          "abort-early",
					Label:       "Cut and run",
					Description: "Grab what is in hand and leave before the unit arrives.",
					Narrative:   "The crew bails with a partial take, sirens fading behind them.",
					Effects:     Effects{PayoutMultiplier: Float(0.6), HeatDelta: -1, DurationMultiplier: Float(0.8)},
				},
				{
					ID:          "dig-in",
					Label:       "Dig in",
					Description: "Barricade and finish the job under fire.",
					Narrative:   "Bullets spark off the doors while the drill screams through the last lock.",
					Effects:     Effects{HeatDelta: 3, SuccessDelta: -0.15, CrewLoyaltyDelta: 1},
				},
			},
		},
		{
			ID:                    "exit-ambush",
			Label:                 "Rival Crew Exit Ambush",
			Description:           "A rival crew is waiting at the exit route, hoping to take the haul for themselves.",
			TriggerProgress:       0.85,
			MinDifficulty:         2,
			MaxDifficulty:         10,
			RiskTiers:             []RiskTier{RiskModerate, RiskHigh},
			BaseWeight:            1,
			DifficultyBandWeights: map[DifficultyBand]float64{BandMid: 1.1, BandHigh: 1.2},
			RiskTierWeights:       map[RiskTier]float64{RiskHigh: 1.4},
			Choices: []Choice{
				{
					ID:          "reroute",
					Label:       "Take the long way",
					Description: "Abandon the planned route and loop through the industrial district.",
					Narrative:   "The detour costs time, but the rival crew is left waiting at an empty corner.",
					Effects:     Effects{DurationDelta: 2, SuccessDelta: -0.05},
				},
				{
					ID:          "punch-through",
					Label:       "Punch through",
					Description: "Floor it and ram the blockade.",
					Narrative:   "Metal screams as the getaway car tears through the rival line.",
					Effects:     Effects{HeatDelta: 2, PayoutDelta: 1500, SuccessDelta: -0.1},
				},
			},
		},
		{
			ID:                    "vault-timer",
			Label:                 "Vault Time-Lock Glitch",
			Description:           "The vault's time-lock stutters and offers a narrow window before it resets.",
			TriggerProgress:       0.5,
			MinDifficulty:         2,
			MaxDifficulty:         8,
			BaseWeight:            0.8,
			DifficultyBandWeights: map[DifficultyBand]float64{BandMid: 1.2},
			Choices: []Choice{
				{
					ID:          "wait-cycle",
					Label:       "Wait for the reset",
					Description: "Let the lock cycle and crack it cleanly.",
					Narrative:   "Patience wins out; the lock resets into a known state.",
					Effects:     Effects{DurationDelta: 1},
				},
				{
					ID:          "force-window",
					Label:       "Force the window",
					Description: "Hit the glitch while it lasts.",
					Narrative:   "The door swings open early and the crew rushes in.",
					Effects:     Effects{PayoutMultiplier: Float(1.15), HeatDelta: 1, SuccessDelta: -0.05},
				},
			},
		},
		{
			ID:                    "civilian-witness",
			Label:                 "Civilian Witness",
			Description:           "A late-shift janitor stumbles onto the crew mid-job.",
			TriggerProgress:       0.25,
			MinDifficulty:         1,
			MaxDifficulty:         5,
			RiskTiers:             []RiskTier{RiskLow, RiskModerate},
			BaseWeight:            1,
			DifficultyBandWeights: map[DifficultyBand]float64{BandLow: 1.3},
			Choices: []Choice{
				{
					ID:          "bribe-witness",
					Label:       "Pay for silence",
					Description: "Hand over a thick envelope.",
					Narrative:   "The janitor counts the bills and decides they saw nothing.",
					Effects:     Effects{PayoutDelta: -800},
				},
				{
					ID:          "tie-up",
					Label:       "Tie them up",
					Description: "Zip-tie the witness in a supply closet.",
					Narrative:   "It is quick and quiet, but a description will reach the precinct by morning.",
					Effects:     Effects{HeatDelta: 2},
				},
			},
		},
		{
			ID:                   "comms-jam",
			Label:                "Comms Jammer",
			Description:          "A police jammer blankets the area and the crew's radios go to static.",
			TriggerProgress:      0.55,
			MinDifficulty:        3,
			MaxDifficulty:        10,
			CrackdownTiers:       []CrackdownTier{CrackdownAlert, CrackdownLockdown},
			BaseWeight:           0.9,
			CrackdownTierWeights: map[CrackdownTier]float64{CrackdownLockdown: 1.3},
			Choices: []Choice{
				{
					ID:          "hand-signals",
					Label:       "Switch to hand signals",
					Description: "Fall back on the rehearsed hand signals.",
					Narrative:   "The crew moves slower but stays in sync.",
					Effects:     Effects{DurationMultiplier: Float(1.2)},
				},
				{
					ID:          "burn-relay",
					Label:       "Burn a relay",
					Description: "Overpower the jammer with a burner relay.",
					Narrative:   "The relay cuts through the static, and every scanner in the district hears it.",
					Effects:     Effects{HeatDelta: 2, SuccessDelta: 0.05},
				},
			},
		},
		{
			ID:                   "informant-tip",
			Label:                "Informant Tip-Off",
			Description:          "A street informant offers a guard rotation schedule for a price.",
			TriggerProgress:      0.15,
			MinDifficulty:        1,
			MaxDifficulty:        10,
			BaseWeight:           0.6,
			CrackdownTierWeights: map[CrackdownTier]float64{CrackdownCalm: 1.5, CrackdownLockdown: 0.5},
			Choices: []Choice{
				{
					ID:          "buy-intel",
					Label:       "Buy the schedule",
					Description: "Pay for the rotation details.",
					Narrative:   "The schedule checks out and the crew times its entry perfectly.",
					Effects:     Effects{PayoutDelta: -500, SuccessDelta: 0.1},
				},
				{
					ID:          "pass",
					Label:       "Pass",
					Description: "Decline and stick to the plan.",
					Narrative:   "The informant shrugs and melts back into the crowd.",
					Effects:     Effects{},
				},
			},
		},
		{
			ID:              "getaway-breakdown",
			Label:           "Getaway Vehicle Stall",
			Description:     "The getaway car coughs and stalls two blocks from the drop.",
			TriggerProgress: 0.9,
			MinDifficulty:   1,
			MaxDifficulty:   10,
			BaseWeight:      0.7,
			RiskTierWeights: map[RiskTier]float64{RiskHigh: 1.2},
			Choices: []Choice{
				{
					ID:          "fix-engine",
					Label:       "Fix it on the spot",
					Description: "Pop the hood and get it running.",
					Narrative:   "Grease-stained hands coax the engine back to life.",
					Effects:     Effects{DurationDelta: 1, HeatDelta: 1},
				},
				{
					ID:          "steal-ride",
					Label:       "Boost another ride",
					Description: "Hotwire the nearest sedan.",
					Narrative:   "The crew transfers the haul into a stolen sedan and drives off.",
					Effects:     Effects{HeatDelta: 2, PayoutMultiplier: Float(0.95)},
				},
			},
		},
		{
			ID:              "lockdown-checkpoint",
			Label:           "Citywide Checkpoint",
			Description:     "Lockdown checkpoints seal the main arteries out of the district.",
			TriggerProgress: 0.8,
			MinDifficulty:   1,
			MaxDifficulty:   10,
			CrackdownTiers:  []CrackdownTier{CrackdownLockdown},
			BaseWeight:      1.3,
			Choices: []Choice{
				{
					ID:          "forged-papers",
					Label:       "Show forged papers",
					Description: "Bluff through with the forged transit permits.",
					Narrative:   "The officer squints at the permit for a long moment, then waves the van through.",
					Effects:     Effects{SuccessDelta: -0.05, PayoutDelta: -300},
				},
				{
					ID:          "go-underground",
					Label:       "Go underground",
					Description: "Ditch the vehicle and take the maintenance tunnels.",
					Narrative:   "The crew disappears into the tunnels, leaving the heavy loot behind.",
					Effects:     Effects{PayoutMultiplier: Float(0.7), HeatMultiplier: Float(0.5)},
				},
			},
		},
		{
			ID:                    "bonus-score",
			Label:                 "Unguarded Side Vault",
			Description:           "The crew spots a side vault that was never on the blueprints.",
			TriggerProgress:       0.6,
			MinDifficulty:         2,
			MaxDifficulty:         10,
			BaseWeight:            0.5,
			DifficultyBandWeights: map[DifficultyBand]float64{BandHigh: 1.5},
			RiskTierWeights:       map[RiskTier]float64{RiskHigh: 1.3},
			Choices: []Choice{
				{
					ID:          "crack-it",
					Label:       "Crack it",
					Description: "Spend the extra minutes and grab the bonus haul.",
					Narrative:   "The side vault yields a stack of bearer bonds.",
					Effects:     Effects{PayoutDelta: 2500, DurationDelta: 2, HeatDelta: 1},
				},
				{
					ID:          "leave-it",
					Label:       "Leave it",
					Description: "Stick to the plan.",
					Narrative:   "Greed gets crews caught. The crew moves on.",
					Effects:     Effects{},
				},
			},
		},
	}
}
