package sim

// UnitID indexes into the Entity Store. Units are never addressed by
// pointer outside of the store itself — every cross-entity reference
// (targets, reaction targets, melee targets) is a UnitID, so a dead
// entity simply fails a Get rather than dangling.
type UnitID uint32

// Faction is an opaque integer; two units are hostile iff their
// factions differ.
type Faction int32

// Hostile reports whether a and b are on opposing sides.
func Hostile(a, b Faction) bool { return a != b }

// Zone is an axis-aligned rectangle in feet, used by the auto-targeting
// system's zone-priority rule.
type Zone struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether the point (x, y), given in feet, lies inside z.
func (z Zone) Contains(x, y float64) bool {
	return x >= z.MinX && x <= z.MaxX && y >= z.MinY && y <= z.MaxY
}

// Unit is the positional shell around a Character. It exclusively owns
// its Character; there is no separate character-id arena because the
// 1:1 ownership makes one impossible to observe from outside the store.
type Unit struct {
	ID      UnitID
	X, Y    float64 // pixels
	TX, TY  float64 // movement target, pixels
	VX, VY  float64 // pixels/tick, updated by position integration
	Moving  bool
	Faction Faction
	Char    Character
}

// UnitSpec is the caller-supplied description used by add_unit.
type UnitSpec struct {
	X, Y    float64
	Faction Faction
	Char    Character
}

// EntityStore is the indexed collection of Units. IDs are never reused:
// removal tombstones a slot rather than freeing it for reassignment, so
// that a stale UnitID captured by an event or a reaction target always
// either resolves to the same unit or fails cleanly, never silently
// resolves to an unrelated unit that reused the id.
type EntityStore struct {
	units []*Unit
	order []UnitID
}

// NewEntityStore constructs an empty store.
func NewEntityStore() *EntityStore {
	return &EntityStore{}
}

// Add inserts a new unit built from spec and returns its id.
func (s *EntityStore) Add(spec UnitSpec) UnitID {
	id := UnitID(len(s.units))
	u := &Unit{
		ID:      id,
		X:       spec.X,
		Y:       spec.Y,
		TX:      spec.X,
		TY:      spec.Y,
		Faction: spec.Faction,
		Char:    spec.Char,
	}
	s.units = append(s.units, u)
	s.order = append(s.order, id)
	return id
}

// Get returns the unit for id, or false if it was removed or never existed.
func (s *EntityStore) Get(id UnitID) (*Unit, bool) {
	if int(id) >= len(s.units) {
		return nil, false
	}
	u := s.units[id]
	if u == nil {
		return nil, false
	}
	return u, true
}

// Remove tombstones id. Callers are responsible for cancelling owner
// events first (Sim.RemoveUnit does this).
func (s *EntityStore) Remove(id UnitID) {
	if int(id) < len(s.units) {
		s.units[id] = nil
	}
}

// Iter returns all live units in insertion order. Insertion order, not
// map iteration order, is what makes iter_units deterministic run over
// run.
func (s *EntityStore) Iter() []*Unit {
	out := make([]*Unit, 0, len(s.order))
	for _, id := range s.order {
		if u := s.units[id]; u != nil {
			out = append(out, u)
		}
	}
	return out
}

// Hostiles returns all live units hostile to of, in insertion order.
func (s *EntityStore) Hostiles(of UnitID) []*Unit {
	self, ok := s.Get(of)
	if !ok {
		return nil
	}
	out := make([]*Unit, 0, len(s.order))
	for _, id := range s.order {
		if id == of {
			continue
		}
		u := s.units[id]
		if u == nil {
			continue
		}
		if Hostile(u.Faction, self.Faction) {
			out = append(out, u)
		}
	}
	return out
}

// Count returns the number of live units.
func (s *EntityStore) Count() int {
	n := 0
	for _, u := range s.units {
		if u != nil {
			n++
		}
	}
	return n
}
