package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrPolicyExists   = errors.New("policy already registered")
	ErrPolicyNotFound = errors.New("policy not found")
)

var policyRegistry = struct {
	mu           sync.RWMutex
	scoring      map[string]ScoringPolicy
	reproduction map[string]Reproducer
}{
	scoring:      make(map[string]ScoringPolicy),
	reproduction: make(map[string]Reproducer),
}

func init() {
	initializeBuiltInPolicies()
}

func initializeBuiltInPolicies() {
	for _, p := range []ScoringPolicy{WinsScoring{}, SignedScoring{}} {
		if err := RegisterScoring(p); err != nil {
			panic(err)
		}
	}
	for _, r := range []Reproducer{FixedQuotaReproduction{}, ProportionalReproduction{}} {
		if err := RegisterReproduction(r); err != nil {
			panic(err)
		}
	}
}

func RegisterScoring(p ScoringPolicy) error {
	if p == nil || p.Name() == "" {
		return errors.New("named scoring policy is required")
	}
	policyRegistry.mu.Lock()
	defer policyRegistry.mu.Unlock()
	if _, exists := policyRegistry.scoring[p.Name()]; exists {
		return fmt.Errorf("%w: scoring %s", ErrPolicyExists, p.Name())
	}
	policyRegistry.scoring[p.Name()] = p
	return nil
}

func RegisterReproduction(r Reproducer) error {
	if r == nil || r.Name() == "" {
		return errors.New("named reproduction policy is required")
	}
	policyRegistry.mu.Lock()
	defer policyRegistry.mu.Unlock()
	if _, exists := policyRegistry.reproduction[r.Name()]; exists {
		return fmt.Errorf("%w: reproduction %s", ErrPolicyExists, r.Name())
	}
	policyRegistry.reproduction[r.Name()] = r
	return nil
}

func ResolveScoring(name string) (ScoringPolicy, error) {
	policyRegistry.mu.RLock()
	defer policyRegistry.mu.RUnlock()
	p, ok := policyRegistry.scoring[name]
	if !ok {
		return nil, fmt.Errorf("%w: scoring %s", ErrPolicyNotFound, name)
	}
	return p, nil
}

func ResolveReproduction(name string) (Reproducer, error) {
	policyRegistry.mu.RLock()
	defer policyRegistry.mu.RUnlock()
	r, ok := policyRegistry.reproduction[name]
	if !ok {
		return nil, fmt.Errorf("%w: reproduction %s", ErrPolicyNotFound, name)
	}
	return r, nil
}

func ListScoring() []string {
	policyRegistry.mu.RLock()
	defer policyRegistry.mu.RUnlock()
	names := make([]string, 0, len(policyRegistry.scoring))
	for name := range policyRegistry.scoring {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListReproduction() []string {
	policyRegistry.mu.RLock()
	defer policyRegistry.mu.RUnlock()
	names := make([]string, 0, len(policyRegistry.reproduction))
	for name := range policyRegistry.reproduction {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetPolicyRegistryForTests() {
	policyRegistry.mu.Lock()
	policyRegistry.scoring = make(map[string]ScoringPolicy)
	policyRegistry.reproduction = make(map[string]Reproducer)
	policyRegistry.mu.Unlock()
	initializeBuiltInPolicies()
}
