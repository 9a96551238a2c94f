package crew

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"heist-engine/internal/events"
)

// Band is a team's chemistry classification.
type Band string

const (
	BandNeutral Band = "neutral"
	BandSynergy Band = "synergy"
	BandStrain  Band = "strain"
)

// ChemistryProfile is the mission system's reading of a team's chemistry.
type ChemistryProfile struct {
	Band               Band `json:"band"`
	EnteredSynergyBand bool `json:"enteredSynergyBand"`
	EnteredStrainBand  bool `json:"enteredStrainBand"`
}

// ChemistryInput is one crew assignment reported after a mission.
type ChemistryInput struct {
	CrewIDs     []string
	CrewMembers []Record
	Profile     ChemistryProfile
	Mission     *events.Mission
}

// PendingEvent is a queued relationship event awaiting a player choice.
type PendingEvent struct {
	ID          string          `json:"id"`
	TeamKey     string          `json:"teamKey"`
	Band        Band            `json:"band"`
	CrewIDs     []string        `json:"crewIds"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	MissionID   string          `json:"missionId,omitempty"`
	CreatedAt   int64           `json:"createdAt"`
	Choices     []events.Choice `json:"choices"`
}

// EventView is a display copy of a pending event. It shares no memory with
// the stored event.
type EventView struct {
	ID          string          `json:"id"`
	TeamKey     string          `json:"teamKey"`
	Band        Band            `json:"band"`
	CrewIDs     []string        `json:"crewIds"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	MissionID   string          `json:"missionId,omitempty"`
	CreatedAt   int64           `json:"createdAt"`
	Choices     []events.Choice `json:"choices"`
}

func (p PendingEvent) clone() PendingEvent {
	out := p
	out.CrewIDs = append([]string{}, p.CrewIDs...)
	out.Choices = make([]events.Choice, len(p.Choices))
	for i, c := range p.Choices {
		c.Effects = c.Effects.Clone()
		out.Choices[i] = c
	}
	return out
}

func (p PendingEvent) view() EventView {
	c := p.clone()
	return EventView{
		ID:          c.ID,
		TeamKey:     c.TeamKey,
		Band:        c.Band,
		CrewIDs:     c.CrewIDs,
		Label:       c.Label,
		Description: c.Description,
		MissionID:   c.MissionID,
		CreatedAt:   c.CreatedAt,
		Choices:     c.Choices,
	}
}

// RelationshipHistoryEntry records one resolved relationship event.
type RelationshipHistoryEntry struct {
	EventID    string `json:"eventId"`
	TeamKey    string `json:"teamKey"`
	Band       Band   `json:"band"`
	ChoiceID   string `json:"choiceId"`
	Summary    string `json:"summary"`
	ResolvedAt int64  `json:"resolvedAt"`
}

// RelationshipState is the persisted relationship block of the game state.
// CooldownByKey maps "teamKey:band" to the epoch ms the band last fired.
type RelationshipState struct {
	Pending        []PendingEvent             `json:"pending"`
	LastBandByTeam map[string]Band            `json:"lastBandByTeam"`
	CooldownByKey  map[string]int64           `json:"cooldownByKey"`
	History        []RelationshipHistoryEntry `json:"history"`
}

// NewRelationshipState returns an empty relationship block.
func NewRelationshipState() *RelationshipState {
	return &RelationshipState{
		Pending:        []PendingEvent{},
		LastBandByTeam: map[string]Band{},
		CooldownByKey:  map[string]int64{},
		History:        []RelationshipHistoryEntry{},
	}
}

// Normalize coerces missing members to their empty shape.
func (s *RelationshipState) Normalize() {
	if s.Pending == nil {
		s.Pending = []PendingEvent{}
	}
	if s.LastBandByTeam == nil {
		s.LastBandByTeam = map[string]Band{}
	}
	if s.CooldownByKey == nil {
		s.CooldownByKey = map[string]int64{}
	}
	if s.History == nil {
		s.History = []RelationshipHistoryEntry{}
	}
}

// RelationshipStore is the slice of game state the service needs.
type RelationshipStore interface {
	RelationshipEvents() *RelationshipState
	Roster() []Record
	// AdjustFunds applies delta, clamps the balance at zero and returns it.
	AdjustFunds(delta float64) float64
}

// RelationshipConfig tunes cooldowns and queue bounds.
type RelationshipConfig struct {
	SynergyCooldown time.Duration
	StrainCooldown  time.Duration
	MaxPending      int
	MaxHistory      int
}

// DefaultRelationshipConfig returns the stock tuning.
func DefaultRelationshipConfig() RelationshipConfig {
	return RelationshipConfig{
		SynergyCooldown: 18 * time.Hour,
		StrainCooldown:  24 * time.Hour,
		MaxPending:      8,
		MaxHistory:      12,
	}
}

// Resolution summarizes the effects applied by ResolveEventChoice.
type Resolution struct {
	EventID         string   `json:"eventId"`
	ChoiceID        string   `json:"choiceId"`
	TeamKey         string   `json:"teamKey"`
	Band            Band     `json:"band"`
	Summary         string   `json:"summary"`
	AffectedCrewIDs []string `json:"affectedCrewIds"`
	LoyaltyDelta    int      `json:"loyaltyDelta"`
	AffinityDelta   int      `json:"affinityDelta"`
	FundsDelta      float64  `json:"fundsDelta"`
	FundsAfter      float64  `json:"fundsAfter"`
	BandReset       bool     `json:"bandReset"`
}

// RelationshipService fires and resolves crew chemistry events.
type RelationshipService struct {
	store RelationshipStore
	cfg   RelationshipConfig

	Now   func() time.Time
	NewID func() string
}

// NewRelationshipService returns a service over store. Zero config fields
// take their defaults.
func NewRelationshipService(store RelationshipStore, cfg RelationshipConfig) *RelationshipService {
	def := DefaultRelationshipConfig()
	if cfg.SynergyCooldown <= 0 {
		cfg.SynergyCooldown = def.SynergyCooldown
	}
	if cfg.StrainCooldown <= 0 {
		cfg.StrainCooldown = def.StrainCooldown
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = def.MaxPending
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	return &RelationshipService{
		store: store,
		cfg:   cfg,
		Now:   time.Now,
		NewID: func() string { return uuid.NewString() },
	}
}

func (s *RelationshipService) state() *RelationshipState {
	st := s.store.RelationshipEvents()
	st.Normalize()
	return st
}

// TeamKey is the sorted, pipe-joined set of distinct normalized crew ids.
// It returns "" for fewer than two distinct ids.
func TeamKey(crewIDs []string) string {
	ids := teamIDs(crewIDs)
	if len(ids) < 2 {
		return ""
	}
	return strings.Join(ids, "|")
}

func teamIDs(crewIDs []string) []string {
	seen := make(map[string]struct{}, len(crewIDs))
	ids := make([]string, 0, len(crewIDs))
	for _, raw := range crewIDs {
		id := normalizeID(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeBand(b Band) Band {
	switch Band(strings.ToLower(strings.TrimSpace(string(b)))) {
	case BandSynergy:
		return BandSynergy
	case BandStrain:
		return BandStrain
	default:
		return BandNeutral
	}
}

func (s *RelationshipService) cooldown(b Band) time.Duration {
	if b == BandStrain {
		return s.cfg.StrainCooldown
	}
	return s.cfg.SynergyCooldown
}

// RecordChemistryMilestones fires a relationship event when a team moves into
// synergy or strain and the band's cooldown has lapsed. It returns nil when
// nothing fires.
func (s *RelationshipService) RecordChemistryMilestones(in ChemistryInput) *EventView {
	key := TeamKey(in.CrewIDs)
	if key == "" {
		return nil
	}
	st := s.state()
	band := normalizeBand(in.Profile.Band)
	prev, ok := st.LastBandByTeam[key]
	if !ok {
		prev = BandNeutral
	}
	st.LastBandByTeam[key] = band

	if band == prev {
		return nil
	}
	switch band {
	case BandSynergy:
		if !in.Profile.EnteredSynergyBand {
			return nil
		}
	case BandStrain:
		if !in.Profile.EnteredStrainBand {
			return nil
		}
	default:
		return nil
	}

	now := s.Now()
	cdKey := key + ":" + string(band)
	if last, ok := st.CooldownByKey[cdKey]; ok && now.Sub(time.UnixMilli(last)) < s.cooldown(band) {
		return nil
	}
	st.CooldownByKey[cdKey] = now.UnixMilli()

	ev := s.buildEvent(key, band, in, now)
	st.Pending = append(st.Pending, ev)
	if over := len(st.Pending) - s.cfg.MaxPending; over > 0 {
		st.Pending = slices.Delete(st.Pending, 0, over)
	}
	v := ev.view()
	return &v
}

func (s *RelationshipService) buildEvent(key string, band Band, in ChemistryInput, now time.Time) PendingEvent {
	ids := teamIDs(in.CrewIDs)
	names := crewNames(ids, in.CrewMembers)
	ev := PendingEvent{
		ID:        s.NewID(),
		TeamKey:   key,
		Band:      band,
		CrewIDs:   ids,
		CreatedAt: now.UnixMilli(),
	}
	if in.Mission != nil {
		ev.MissionID = in.Mission.ID
	}
	tmpl := relationshipTemplates[band]
	ev.Label = tmpl.label
	ev.Description = fmt.Sprintf(tmpl.description, joinNames(names))
	ev.Choices = make([]events.Choice, len(tmpl.choices))
	for i, c := range tmpl.choices {
		c.Effects = c.Effects.Clone()
		ev.Choices[i] = c
	}
	return ev
}

func crewNames(ids []string, members []Record) []string {
	byID := make(map[string]string, len(members))
	for _, r := range members {
		if m := member(r); m != nil && m.Name != "" {
			byID[normalizeID(m.ID)] = m.Name
		}
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		if n, ok := byID[id]; ok {
			names[i] = n
		} else {
			names[i] = id
		}
	}
	return names
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "the crew"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

// PendingEvents returns display copies of the queued events, oldest first.
func (s *RelationshipService) PendingEvents() []EventView {
	st := s.state()
	out := make([]EventView, len(st.Pending))
	for i, ev := range st.Pending {
		out[i] = ev.view()
	}
	return out
}

// ResolveEventChoice applies choiceID to the pending event eventID and
// removes it from the queue. It returns nil when either id is unknown.
func (s *RelationshipService) ResolveEventChoice(eventID, choiceID string) *Resolution {
	st := s.state()
	idx := slices.IndexFunc(st.Pending, func(p PendingEvent) bool { return p.ID == eventID })
	if idx < 0 {
		return nil
	}
	ev := st.Pending[idx]
	ci := slices.IndexFunc(ev.Choices, func(c events.Choice) bool { return c.ID == choiceID })
	if ci < 0 {
		return nil
	}
	choice := ev.Choices[ci]
	st.Pending = slices.Delete(st.Pending, idx, idx+1)

	crew := s.resolveCrew(ev.CrewIDs)
	res := &Resolution{
		EventID:         ev.ID,
		ChoiceID:        choice.ID,
		TeamKey:         ev.TeamKey,
		Band:            ev.Band,
		AffectedCrewIDs: []string{},
		LoyaltyDelta:    choice.Effects.CrewLoyaltyDelta,
		AffinityDelta:   choice.Effects.AffinityDelta,
		FundsDelta:      choice.Effects.FundsDelta,
	}
	for _, r := range crew {
		res.AffectedCrewIDs = append(res.AffectedCrewIDs, r.CrewMember().ID)
		adjustLoyalty(r, choice.Effects.CrewLoyaltyDelta)
	}
	for i := range crew {
		for j := range crew {
			if i == j {
				continue
			}
			adjustAffinity(crew[i], crew[j].CrewMember().ID, choice.Effects.AffinityDelta)
		}
	}
	res.FundsAfter = s.store.AdjustFunds(choice.Effects.FundsDelta)
	if choice.Effects.ClearBand {
		st.LastBandByTeam[ev.TeamKey] = BandNeutral
		res.BandReset = true
	}

	res.Summary = choice.Narrative
	if res.Summary == "" {
		res.Summary = choice.Label
	}
	st.History = append(st.History, RelationshipHistoryEntry{
		EventID:    ev.ID,
		TeamKey:    ev.TeamKey,
		Band:       ev.Band,
		ChoiceID:   choice.ID,
		Summary:    res.Summary,
		ResolvedAt: s.Now().UnixMilli(),
	})
	if over := len(st.History) - s.cfg.MaxHistory; over > 0 {
		st.History = slices.Delete(st.History, 0, over)
	}
	return res
}

// resolveCrew matches ids against the live roster, skipping unknown ids.
func (s *RelationshipService) resolveCrew(ids []string) []Record {
	roster := s.store.Roster()
	byID := make(map[string]Record, len(roster))
	for _, r := range roster {
		if m := member(r); m != nil {
			byID[normalizeID(m.ID)] = r
		}
	}
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

type relationshipTemplate struct {
	label       string
	description string
	choices     []events.Choice
}

var relationshipTemplates = map[Band]relationshipTemplate{
	BandSynergy: {
		label:       "Crew In Sync",
		description: "%s finished each other's moves on the last job. The rest of the crew noticed.",
		choices: []events.Choice{
			{
				ID:          "celebrate",
				Label:       "Throw a celebration",
				Description: "Spend some of the take on a night out for the team.",
				Narrative:   "The crew toasts the job until sunrise and walks away closer than ever.",
				Effects:     events.Effects{CrewLoyaltyDelta: 1, AffinityDelta: 1, FundsDelta: -500},
			},
			{
				ID:          "bank-momentum",
				Label:       "Bank the momentum",
				Description: "Keep them working together on the next score.",
				Narrative:   "The pair stays on the same rotation and the bond quietly deepens.",
				Effects:     events.Effects{AffinityDelta: 2},
			},
		},
	},
	BandStrain: {
		label:       "Crew Friction",
		description: "%s nearly came to blows after the last job.",
		choices: []events.Choice{
			{
				ID:          "mediate",
				Label:       "Mediate",
				Description: "Sit them down and pay for a peace offering.",
				Narrative:   "A long dinner and a cash gesture cool things off.",
				Effects:     events.Effects{AffinityDelta: 1, FundsDelta: -300, ClearBand: true},
			},
			{
				ID:          "let-it-simmer",
				Label:       "Let it simmer",
				Description: "Professionals sort out their own problems.",
				Narrative:   "Nobody talks about it, and everyone remembers.",
				Effects:     events.Effects{CrewLoyaltyDelta: -1, AffinityDelta: -1},
			},
		},
	},
}
