// Package crew builds the capability registry and worker pool from a roster.
// Both are read-only once New returns and are safe for concurrent use.
package crew

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Registry maps each role to the capabilities it is granted.
type Registry struct {
	bundles map[models.Role]models.CapabilityBundle
}

// CapabilitiesFor returns the bundle granted to role. An undeclared role is
// a configuration error.
func (r *Registry) CapabilitiesFor(role models.Role) (models.CapabilityBundle, error) {
	b, ok := r.bundles[role]
	if !ok {
		return models.CapabilityBundle{}, models.NewFailure(models.FailureConfiguration,
			"no capabilities declared for role %q", role).WithRole(role)
	}
	return b, nil
}

// Pool holds the single pre-built Worker for each role.
type Pool struct {
	workers map[models.Role]*models.Worker
}

// WorkerFor returns the worker for role. The same pointer is returned on
// every call.
func (p *Pool) WorkerFor(role models.Role) (*models.Worker, error) {
	w, ok := p.workers[role]
	if !ok {
		return nil, models.NewFailure(models.FailureConfiguration,
			"no worker for role %q", role).WithRole(role)
	}
	return w, nil
}

// Workers returns every worker in role order, manager first.
func (p *Pool) Workers() []*models.Worker {
	out := make([]*models.Worker, 0, len(p.workers))
	for _, role := range models.AllRoles() {
		if w, ok := p.workers[role]; ok {
			out = append(out, w)
		}
	}
	return out
}

// Crew bundles the registry and pool built from one roster.
type Crew struct {
	*Registry
	*Pool
}

// New validates roster and builds the registry and pool. Every role must be
// declared with a non-empty bundle of known capabilities and a positive
// budget, and only the manager may delegate. All violations are reported
// together as one configuration failure.
func New(roster Roster) (*Crew, error) {
	reg := &Registry{bundles: make(map[models.Role]models.CapabilityBundle, len(roster))}
	pool := &Pool{workers: make(map[models.Role]*models.Worker, len(roster))}

	var problems []string
	for role := range roster {
		if !role.Valid() {
			problems = append(problems, fmt.Sprintf("unknown role %q", role))
		}
	}

	for _, role := range models.AllRoles() {
		spec, ok := roster[role]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: not declared", role))
			continue
		}

		bundle, err := models.ParseBundle(spec.Capabilities)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", role, err))
			continue
		}
		if bundle.IsEmpty() {
			problems = append(problems, fmt.Sprintf("%s: empty capability bundle", role))
		}
		if spec.Budget <= 0 {
			problems = append(problems, fmt.Sprintf("%s: budget must be positive, got %d", role, spec.Budget))
		}
		if spec.CanDelegate && !role.IsManager() {
			problems = append(problems, fmt.Sprintf("%s: only the manager may delegate", role))
		}
		if role.IsManager() && !spec.CanDelegate {
			problems = append(problems, fmt.Sprintf("%s: the manager must be able to delegate", role))
		}

		reg.bundles[role] = bundle
		pool.workers[role] = &models.Worker{
			Role:         role,
			Description:  spec.Description,
			Instructions: spec.Instructions,
			Bundle:       bundle,
			Budget:       spec.Budget,
			CanDelegate:  spec.CanDelegate,
		}
	}

	if len(problems) > 0 {
		return nil, models.NewFailure(models.FailureConfiguration,
			"invalid roster: %s", strings.Join(problems, "; "))
	}
	return &Crew{Registry: reg, Pool: pool}, nil
}

// Default builds the crew from DefaultRoster.
func Default() *Crew {
	c, err := New(DefaultRoster())
	if err != nil {
		panic(fmt.Sprintf("default roster is invalid: %v", err))
	}
	return c
}
