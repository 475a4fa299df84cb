package controller

import (
	"sort"

	"github.com/ferrodb/ferro/pkg/messages"
)

// handlerFunc processes one inbound message
type handlerFunc func(messages.Message)

type actionType int

const (
	actionUnset actionType = iota
	actionHandle
	actionForward
	actionIgnore
)

type action struct {
	typ actionType
	fn  handlerFunc
}

// dispatchTable routes (role, kind) to an action. Rules live in three
// layers: per-role rules override role-set rules, which override
// any-role rules. Within one layer the rule declared last wins. A kind
// with no rule in any layer falls through to the role's whenOther
// action (forward by default); state-change kinds are never allowed to
// fall through.
type dispatchTable struct {
	specific  [numRoles]map[messages.Kind]action
	sets      [numRoles]map[messages.Kind]action
	fallback  [numRoles]map[messages.Kind]action
	whenOther [numRoles]action
}

func newDispatchTable() *dispatchTable {
	t := &dispatchTable{}
	for r := 0; r < numRoles; r++ {
		t.specific[r] = make(map[messages.Kind]action)
		t.sets[r] = make(map[messages.Kind]action)
		t.fallback[r] = make(map[messages.Kind]action)
		t.whenOther[r] = action{typ: actionForward}
	}
	return t
}

// resolve returns the action for (role, kind) and whether the rule was
// declared explicitly for that kind.
func (t *dispatchTable) resolve(role Role, kind messages.Kind) (action, bool) {
	if a, ok := t.specific[role][kind]; ok {
		return a, true
	}
	if a, ok := t.sets[role][kind]; ok {
		return a, true
	}
	if a, ok := t.fallback[role][kind]; ok {
		return a, true
	}
	return t.whenOther[role], false
}

// allRoles lists every role once, in declaration order
func allRoles() []Role {
	roles := make([]Role, numRoles)
	for i := range roles {
		roles[i] = Role(i)
	}
	return roles
}

// rolesExcept lists every role not in excluded
func rolesExcept(excluded ...Role) []Role {
	skip := make(map[Role]bool, len(excluded))
	for _, r := range excluded {
		skip[r] = true
	}
	var roles []Role
	for i := 0; i < numRoles; i++ {
		if !skip[Role(i)] {
			roles = append(roles, Role(i))
		}
	}
	return roles
}

// scope is one layer-bound rule set under construction
type scope struct {
	table *dispatchTable
	layer *[numRoles]map[messages.Kind]action
	roles []Role
}

// inRole opens a per-role scope (strongest layer)
func (t *dispatchTable) inRole(r Role) *scope {
	return &scope{table: t, layer: &t.specific, roles: []Role{r}}
}

// inRoles opens a role-set scope (middle layer)
func (t *dispatchTable) inRoles(rs ...Role) *scope {
	return &scope{table: t, layer: &t.sets, roles: rs}
}

// inAllRolesExcept opens a fallback scope over every other role
func (t *dispatchTable) inAllRolesExcept(rs ...Role) *scope {
	return &scope{table: t, layer: &t.fallback, roles: rolesExcept(rs...)}
}

// inAnyRole opens a fallback scope over every role
func (t *dispatchTable) inAnyRole() *scope {
	return &scope{table: t, layer: &t.fallback, roles: allRoles()}
}

func (s *scope) set(kind messages.Kind, a action) *scope {
	for _, r := range s.roles {
		s.layer[r][kind] = a
	}
	return s
}

// handle routes the kind to fn in this scope's roles
func (s *scope) handle(kind messages.Kind, fn handlerFunc) *scope {
	return s.set(kind, action{typ: actionHandle, fn: fn})
}

// forward routes the kind to the output bus in this scope's roles
func (s *scope) forward(kind messages.Kind) *scope {
	return s.set(kind, action{typ: actionForward})
}

// ignore drops the kind in this scope's roles
func (s *scope) ignore(kind messages.Kind) *scope {
	return s.set(kind, action{typ: actionIgnore})
}

// whenOther sets the fall-through action for this scope's roles
func (s *scope) whenOther(typ actionType) *scope {
	for _, r := range s.roles {
		s.table.whenOther[r] = action{typ: typ}
	}
	return s
}

// uncoveredStateChanges reports, per role, the state-change kinds that
// would fall through to whenOther. Used by tests to inspect coverage;
// a non-empty result for a reachable (role, kind) pair is a
// construction bug surfaced as a fatal at dispatch time.
func (t *dispatchTable) uncoveredStateChanges(stateChangeKinds []messages.Kind) map[Role][]messages.Kind {
	uncovered := make(map[Role][]messages.Kind)
	for r := 0; r < numRoles; r++ {
		role := Role(r)
		for _, k := range stateChangeKinds {
			if _, explicit := t.resolve(role, k); !explicit {
				uncovered[role] = append(uncovered[role], k)
			}
		}
		sort.Slice(uncovered[role], func(i, j int) bool {
			return uncovered[role][i] < uncovered[role][j]
		})
	}
	return uncovered
}
