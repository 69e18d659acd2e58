// Package scope computes the set of projects a caller may see, based on
// their role and project assignments.
package scope

import (
	"context"
	"fmt"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
)

// Caller is the resolved identity of a request, produced by the auth layer.
type Caller struct {
	ID   uint
	Role database.UserRole
}

// Scope is the project visibility of a caller. When All is set, ProjectIDs
// is meaningless and the caller sees everything.
type Scope struct {
	All        bool
	ProjectIDs []uint
}

// Contains reports whether the scope covers the given project.
func (s Scope) Contains(projectID uint) bool {
	if s.All {
		return true
	}
	for _, id := range s.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// Resolver computes visibility scopes from the project store.
type Resolver struct {
	db database.Database
}

// NewResolver creates a new Resolver
func NewResolver(db database.Database) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the caller's visible project set. Admins see everything,
// PMs see their assigned projects regardless of status, execs see active
// projects only.
func (r *Resolver) Resolve(ctx context.Context, caller Caller) (Scope, error) {
	switch caller.Role {
	case database.RoleAdmin:
		return Scope{All: true}, nil
	case database.RolePM:
		projects, err := r.db.ListProjectsByPM(ctx, caller.ID)
		if err != nil {
			return Scope{}, err
		}
		return Scope{ProjectIDs: projectIDs(projects)}, nil
	case database.RoleExec:
		projects, err := r.db.ListActiveProjects(ctx)
		if err != nil {
			return Scope{}, err
		}
		return Scope{ProjectIDs: projectIDs(projects)}, nil
	default:
		return Scope{}, fmt.Errorf("%w: unknown role %q", database.ErrAccessDenied, caller.Role)
	}
}

// Authorize returns ErrAccessDenied when the caller names a project outside
// their scope.
func (r *Resolver) Authorize(scope Scope, projectID uint) error {
	if !scope.Contains(projectID) {
		return fmt.Errorf("%w: project %d is out of scope", database.ErrAccessDenied, projectID)
	}
	return nil
}

func projectIDs(projects []*database.Project) []uint {
	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}
