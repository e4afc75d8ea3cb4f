// Package alloc computes per-workload memory allocations from node
// capacity, workload size tiers and replica counts.
//
// Workloads sharing a server group split the group's usable memory in
// proportion to tier weight times replica count. The master group is
// shared with control plane components, so allocations there are capped
// per tier; dedicated groups instead pre-reserve rolling-update headroom
// and are never capped.
package alloc

import (
	"fmt"
	"sort"
)

// Tier is a named workload sizing class.
type Tier string

const (
	TierMinimal Tier = "minimal"
	TierSmall   Tier = "small"
	TierMedium  Tier = "medium"
	TierLarge   Tier = "large"
)

// tierSpec maps a tier to its relative weight and its per-replica memory
// cap on the master group.
type tierSpec struct {
	weight int64
	capMB  int64
}

var tiers = map[Tier]tierSpec{
	TierMinimal: {weight: 1, capMB: 256},
	TierSmall:   {weight: 2, capMB: 512},
	TierMedium:  {weight: 4, capMB: 1024},
	TierLarge:   {weight: 8, capMB: 2048},
}

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tiers[t]; !ok {
		return "", fmt.Errorf("unknown size tier %q (valid: minimal, small, medium, large)", s)
	}
	return t, nil
}

// Fractions of group capacity withheld from workloads.
const (
	// systemReserveFraction is withheld on every group for the host OS
	// and cluster components.
	systemReserveFraction = 0.20

	// rollingUpdateHeadroomFraction is additionally withheld on dedicated
	// groups. Their pods cannot spill to sibling nodes during a rolling
	// update, so the surge replica must fit locally.
	rollingUpdateHeadroomFraction = 0.25
)

// Workload is one sizing input.
type Workload struct {
	Name     string
	Tier     Tier
	Replicas int

	// Group is the target server group; empty means the master group.
	Group string
}

// Allocation is the computed memory budget for one replica of a workload.
type Allocation struct {
	MemoryMB int64
}

// Allocate computes allocations for all workloads. capacitiesMB maps each
// server group to the memory of a single node in that group, in MB.
func Allocate(masterGroup string, capacitiesMB map[string]int64, workloads []Workload) (map[string]Allocation, error) {
	byGroup := make(map[string][]Workload)
	for _, w := range workloads {
		if _, ok := tiers[w.Tier]; !ok {
			return nil, fmt.Errorf("workload %s: unknown size tier %q", w.Name, w.Tier)
		}
		if w.Replicas < 1 {
			return nil, fmt.Errorf("workload %s: replicas must be >= 1", w.Name)
		}
		group := w.Group
		if group == "" {
			group = masterGroup
		}
		byGroup[group] = append(byGroup[group], w)
	}

	out := make(map[string]Allocation, len(workloads))

	// Deterministic group order for stable error reporting.
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		capacity, ok := capacitiesMB[group]
		if !ok {
			return nil, fmt.Errorf("no node capacity known for server group %q", group)
		}
		if err := allocateGroup(group, group == masterGroup, capacity, byGroup[group], out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func allocateGroup(group string, isMaster bool, capacityMB int64, workloads []Workload, out map[string]Allocation) error {
	available := float64(capacityMB) * (1 - systemReserveFraction)
	if !isMaster {
		available *= 1 - rollingUpdateHeadroomFraction
	}

	var totalWeight int64
	for _, w := range workloads {
		totalWeight += tiers[w.Tier].weight * int64(w.Replicas)
	}
	if totalWeight == 0 {
		return fmt.Errorf("server group %q has zero total workload weight", group)
	}

	for _, w := range workloads {
		spec := tiers[w.Tier]
		memoryMB := int64(available * float64(spec.weight) / float64(totalWeight))
		if isMaster && memoryMB > spec.capMB {
			memoryMB = spec.capMB
		}
		out[w.Name] = Allocation{MemoryMB: memoryMB}
	}
	return nil
}
