// Crew chemistry events and loyalty storylines.
package crew

import (
	"slices"
	"strings"
)

const (
	MinLoyalty = 0
	MaxLoyalty = 5
)

// Background is a crew member's origin, which selects their storyline table.
type Background struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	PerkLabel string `yaml:"perk_label,omitempty" json:"perkLabel,omitempty"`
}

// StoryProgress tracks completed storyline steps. CompletedSteps only grows.
type StoryProgress struct {
	CompletedSteps []string `yaml:"completed_steps,omitempty" json:"completedSteps"`
}

// Member is the plain crew record the engine mutates when no hook is present.
type Member struct {
	ID            string         `yaml:"id" json:"id"`
	Name          string         `yaml:"name" json:"name"`
	Loyalty       int            `yaml:"loyalty" json:"loyalty"`
	Traits        map[string]int `yaml:"traits,omitempty" json:"traits,omitempty"`
	Perks         []string       `yaml:"perks,omitempty" json:"perks,omitempty"`
	Background    Background     `yaml:"background" json:"background"`
	StoryProgress StoryProgress  `yaml:"story_progress" json:"storyProgress"`
	Affinity      map[string]int `yaml:"affinity,omitempty" json:"affinity,omitempty"`
}

// CrewMember lets *Member satisfy Record directly.
func (m *Member) CrewMember() *Member { return m }

// HasCompleted reports whether stepID is in the member's completed steps.
func (m *Member) HasCompleted(stepID string) bool {
	return slices.Contains(m.StoryProgress.CompletedSteps, stepID)
}

// Record is anything that exposes a crew member. Records may also implement
// the hook interfaces below to observe or override mutations.
type Record interface {
	CrewMember() *Member
}

type LoyaltyAdjuster interface {
	AdjustLoyalty(delta int)
}

type AffinityAdjuster interface {
	AdjustAffinityForCrewmate(peerID string, delta int)
}

type PerkAdder interface {
	AddPerk(perk string)
}

type StoryStepMarker interface {
	MarkStoryStepComplete(stepID string)
}

func member(r Record) *Member {
	if r == nil {
		return nil
	}
	return r.CrewMember()
}

func adjustLoyalty(r Record, delta int) {
	if delta == 0 {
		return
	}
	if h, ok := r.(LoyaltyAdjuster); ok {
		h.AdjustLoyalty(delta)
		return
	}
	if m := member(r); m != nil {
		m.Loyalty = min(max(m.Loyalty+delta, MinLoyalty), MaxLoyalty)
	}
}

func adjustAffinity(r Record, peerID string, delta int) {
	if delta == 0 || peerID == "" {
		return
	}
	if h, ok := r.(AffinityAdjuster); ok {
		h.AdjustAffinityForCrewmate(peerID, delta)
		return
	}
	if m := member(r); m != nil {
		if m.Affinity == nil {
			m.Affinity = make(map[string]int)
		}
		m.Affinity[peerID] += delta
	}
}

func addPerk(r Record, perk string) bool {
	m := member(r)
	if perk == "" || m == nil || slices.Contains(m.Perks, perk) {
		return false
	}
	if h, ok := r.(PerkAdder); ok {
		h.AddPerk(perk)
		return true
	}
	m.Perks = append(m.Perks, perk)
	return true
}

func markStepComplete(r Record, stepID string) {
	m := member(r)
	if m == nil || m.HasCompleted(stepID) {
		return
	}
	if h, ok := r.(StoryStepMarker); ok {
		h.MarkStoryStepComplete(stepID)
		return
	}
	m.StoryProgress.CompletedSteps = append(m.StoryProgress.CompletedSteps, stepID)
}

func boostTrait(m *Member, trait string, delta int) int {
	if m.Traits == nil {
		m.Traits = make(map[string]int)
	}
	m.Traits[trait] = max(m.Traits[trait]+delta, 0)
	return m.Traits[trait]
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
