// Package visibility decides whether a record's creator isolates it from a
// given viewer. This layer is independent of row-level org scoping and
// sharing grants, which are enforced upstream: content by regular creators
// is always visible here, and the rules only bite for superadmin identities.
package visibility

import (
	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
)

// Class is the closed set of identity variants that matter to isolation.
type Class int

const (
	ClassRegular Class = iota
	ClassMainSuperadmin
	ClassShadowSuperadmin
)

// Actor is an immutable identity snapshot, enough to answer every
// visibility question without touching storage.
type Actor struct {
	ID    uuid.UUID
	Class Class
}

// ActorFor classifies a user into its identity variant.
func ActorFor(u *models.User) Actor {
	a := Actor{ID: u.UserID, Class: ClassRegular}
	if u.Role == models.RoleSuperadmin {
		if u.IsShadow {
			a.Class = ClassShadowSuperadmin
		} else {
			a.Class = ClassMainSuperadmin
		}
	}
	return a
}

// Visible reports whether content created by creator may be shown to viewer.
//
// Regular creators never isolate. Superadmin identities are mutually
// isolated across the main/shadow boundary, and shadow identities are also
// isolated from each other; everyone always sees their own content.
func Visible(viewer, creator Actor) bool {
	if creator.Class == ClassRegular {
		return true
	}

	if viewer.ID == creator.ID {
		return true
	}

	switch creator.Class {
	case ClassMainSuperadmin:
		// Main superadmin content is hidden from shadow identities only.
		return viewer.Class != ClassShadowSuperadmin
	case ClassShadowSuperadmin:
		// Shadow content is visible to nobody but the shadow itself.
		return false
	}

	return true
}

// IsolatedCreatorIDs returns the creator ids among the given candidates
// whose content must be excluded from the viewer's queries. List endpoints
// push this set into the storage-layer filter so exclusion happens before
// pagination, not row-by-row after fetch.
func IsolatedCreatorIDs(viewer Actor, creators []Actor) map[uuid.UUID]struct{} {
	isolated := make(map[uuid.UUID]struct{})
	for _, creator := range creators {
		if !Visible(viewer, creator) {
			isolated[creator.ID] = struct{}{}
		}
	}
	return isolated
}
