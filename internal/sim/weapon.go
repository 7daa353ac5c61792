package sim

// WeaponKind tags the Ranged/Melee variant, replacing what would be a
// RangedWeapon/MeleeWeapon subclass pair with field duplication between
// base and subclasses.
type WeaponKind uint8

const (
	KindRanged WeaponKind = iota
	KindMelee
)

// WeaponClass distinguishes pistols and rifles (which gate VERY_CAREFUL
// aiming behind a skill-level check) from every other ranged weapon
// (which disallows VERY_CAREFUL outright).
type WeaponClass uint8

const (
	ClassPistol WeaponClass = iota
	ClassRifle
	ClassOther
)

// ReloadType selects the Reload Manager's scheduling strategy.
type ReloadType uint8

const (
	ReloadSingleRound ReloadType = iota
	ReloadFullMagazine
)

// FiringMode is the ranged weapon's current fire-control setting.
type FiringMode uint8

const (
	FiringSingle FiringMode = iota
	FiringBurst
	FiringFullAuto
)

// MeleeClass categorizes melee weapons for flavor/skill lookups; it has
// no effect on the core formulas beyond what RangeFeet/AttackSpeed/
// Cooldown already encode.
type MeleeClass uint8

const (
	MeleeUnarmed MeleeClass = iota
	MeleeShort
	MeleeMedium
	MeleeLong
	MeleeTwoWeapon
)

// StateNode is one node of a weapon's state-transition graph.
type StateNode struct {
	Name      string
	NextState string
	Ticks     int
}

// StateGraph maps state name to its node. It is directed; branching
// (e.g. ready → aiming vs ready → pointed_from_hip) is resolved by the
// Aiming/Firing-Preference Manager at transition time, not encoded as
// multiple edges, since the choice depends on character state the graph
// itself does not carry.
type StateGraph map[string]StateNode

// Has reports whether name is a valid state in the graph.
func (g StateGraph) Has(name string) bool {
	_, ok := g[name]
	return ok
}

// RangedData holds the ranged-specific fields of a Weapon.
type RangedData struct {
	VelocityFPS          float64
	MaxAmmunition        int
	ReloadTicks          int
	ReloadType           ReloadType
	MaxRangeFeet         float64
	ProjectileName       string
	FiringDelay          int
	CyclicRate           float64
	BurstSize            int
	AvailableFiringModes []FiringMode
	Class                WeaponClass
}

// MeleeData holds the melee-specific fields of a Weapon.
type MeleeData struct {
	Class           MeleeClass
	DefendScore     int
	AttackSpeed     int // ticks from melee_attacking entry to impact
	AttackCooldown  int // ticks of melee_recovering
	RangeFeet       int // weapon "length" used in the reach formula
	ReadyingTicks   int
	OneHanded       bool
}

// Weapon is the tagged variant replacing a Weapon/RangedWeapon/
// MeleeWeapon inheritance chain. Ranged is non-nil iff Kind ==
// KindRanged, and likewise for Melee; the capability methods below are
// the WeaponOps surface every caller actually needs.
type Weapon struct {
	ID           string
	Name         string
	Damage       int
	SoundID      string
	LengthFeet   float64
	Accuracy     int
	Kind         WeaponKind
	Graph        StateGraph
	InitialState string

	Ranged *RangedData
	Melee  *MeleeData
}

// IsRanged reports whether w is the ranged variant.
func (w Weapon) IsRanged() bool { return w.Kind == KindRanged }

// IsMelee reports whether w is the melee variant.
func (w Weapon) IsMelee() bool { return w.Kind == KindMelee }

// TotalReachFeet is the melee reach formula from §4.6: a fixed 4ft of
// body/arm reach plus the weapon's own length.
func (w Weapon) TotalReachFeet() float64 {
	if w.Melee != nil {
		return 4.0 + float64(w.Melee.RangeFeet)
	}
	return 4.0 + w.LengthFeet
}

// Catalog is the static weapon definition table. It is constructed once
// and referenced read-only by every manager, never copied per-character
// (mutable per-character weapon state — ammunition, firing mode,
// multi-shot count — lives on Character, not here).
type Catalog struct {
	weapons map[string]Weapon
}

// NewCatalog builds the catalog with the default weapon set.
func NewCatalog() *Catalog {
	c := &Catalog{weapons: make(map[string]Weapon)}
	for _, w := range defaultWeapons() {
		c.weapons[w.ID] = w
	}
	return c
}

// Get returns the weapon definition for id.
func (c *Catalog) Get(id string) (Weapon, bool) {
	w, ok := c.weapons[id]
	return w, ok
}

// Register adds or overwrites a weapon definition, for scenario-specific
// loadouts built at add_unit time.
func (c *Catalog) Register(w Weapon) {
	c.weapons[w.ID] = w
}

// All returns every registered weapon.
func (c *Catalog) All() []Weapon {
	out := make([]Weapon, 0, len(c.weapons))
	for _, w := range c.weapons {
		out = append(out, w)
	}
	return out
}

// MaxQueryRangeFeet is the largest radius any manager will ever query
// the broad-phase grid with: the longest ranged weapon's MaxRangeFeet
// (auto-target and line-of-sight scans run out to a unit's weapon
// range), or the longest melee reach if the catalog carries no ranged
// weapon at all. The spatial grid sizes its cells off this value so a
// query never has to fan out across more than a handful of cells
// regardless of which weapon a unit is carrying.
func (c *Catalog) MaxQueryRangeFeet() float64 {
	var max float64
	for _, w := range c.weapons {
		var reach float64
		if w.IsRanged() {
			reach = w.Ranged.MaxRangeFeet
		} else {
			reach = w.TotalReachFeet()
		}
		if reach > max {
			max = reach
		}
	}
	if max <= 0 {
		max = 100
	}
	return max
}

func rangedGraph() StateGraph {
	return StateGraph{
		"holstered":           {"holstered", "drawing", 0},
		"drawing":             {"drawing", "ready", 20},
		"ready":               {"ready", "aiming", 0},
		"pointed_from_hip":    {"pointed_from_hip", "firing", 0},
		"aiming":              {"aiming", "firing", 30},
		"firing":              {"firing", "recovering", 2},
		"recovering":          {"recovering", "aiming", 10},
		"reloading":           {"reloading", "ready", 0},
		"switching_to_ranged": {"switching_to_ranged", "ready", 15},
	}
}

func meleeGraph() StateGraph {
	return StateGraph{
		"sheathed":            {"sheathed", "unsheathing", 0},
		"unsheathing":         {"unsheathing", "melee_ready", 15},
		"melee_ready":         {"melee_ready", "melee_attacking", 0},
		"melee_attacking":     {"melee_attacking", "melee_recovering", 0},
		"melee_recovering":    {"melee_recovering", "melee_ready", 0},
		"switching_to_melee":  {"switching_to_melee", "melee_ready", 15},
	}
}

// defaultWeapons is the stock loadout catalog: a sidearm, a burst
// submachine gun, a service rifle, and three melee weapons spanning
// short/medium/unarmed reach.
func defaultWeapons() []Weapon {
	return []Weapon{
		{
			ID: "pistol", Name: "Service Pistol", Damage: 25, SoundID: "pistol_shot",
			LengthFeet: 1.0, Accuracy: 0, Kind: KindRanged,
			Graph: rangedGraph(), InitialState: "holstered",
			Ranged: &RangedData{
				VelocityFPS: 800, MaxAmmunition: 12, ReloadTicks: 90,
				ReloadType: ReloadFullMagazine, MaxRangeFeet: 100,
				ProjectileName: "9mm", FiringDelay: 10, CyclicRate: 0,
				BurstSize: 1, AvailableFiringModes: []FiringMode{FiringSingle},
				Class: ClassPistol,
			},
		},
		{
			ID: "uzi", Name: "Submachine Gun", Damage: 18, SoundID: "smg_burst",
			LengthFeet: 1.8, Accuracy: -5, Kind: KindRanged,
			Graph: rangedGraph(), InitialState: "holstered",
			Ranged: &RangedData{
				VelocityFPS: 1200, MaxAmmunition: 30, ReloadTicks: 120,
				ReloadType: ReloadFullMagazine, MaxRangeFeet: 150,
				ProjectileName: "9mm", FiringDelay: 6, CyclicRate: 600,
				BurstSize: 3, AvailableFiringModes: []FiringMode{FiringSingle, FiringBurst, FiringFullAuto},
				Class: ClassOther,
			},
		},
		{
			ID: "rifle", Name: "Service Rifle", Damage: 35, SoundID: "rifle_shot",
			LengthFeet: 3.0, Accuracy: 10, Kind: KindRanged,
			Graph: rangedGraph(), InitialState: "slung",
			Ranged: &RangedData{
				VelocityFPS: 2800, MaxAmmunition: 20, ReloadTicks: 100,
				ReloadType: ReloadSingleRound, MaxRangeFeet: 500,
				ProjectileName: "5.56mm", FiringDelay: 8, CyclicRate: 700,
				BurstSize: 3, AvailableFiringModes: []FiringMode{FiringSingle, FiringBurst},
				Class: ClassRifle,
			},
		},
		{
			ID: "fists", Name: "Bare Hands", Damage: 8, SoundID: "punch",
			LengthFeet: 0, Accuracy: 0, Kind: KindMelee,
			Graph: meleeGraph(), InitialState: "melee_ready",
			Melee: &MeleeData{
				Class: MeleeUnarmed, DefendScore: 5, AttackSpeed: 8,
				AttackCooldown: 20, RangeFeet: 0, ReadyingTicks: 0, OneHanded: true,
			},
		},
		{
			ID: "knife", Name: "Combat Knife", Damage: 15, SoundID: "knife_slash",
			LengthFeet: 0.8, Accuracy: 0, Kind: KindMelee,
			Graph: meleeGraph(), InitialState: "sheathed",
			Melee: &MeleeData{
				Class: MeleeShort, DefendScore: 8, AttackSpeed: 6,
				AttackCooldown: 15, RangeFeet: 1, ReadyingTicks: 10, OneHanded: true,
			},
		},
		{
			ID: "sword", Name: "Longsword", Damage: 28, SoundID: "sword_swing",
			LengthFeet: 3.0, Accuracy: 0, Kind: KindMelee,
			Graph: meleeGraph(), InitialState: "sheathed",
			Melee: &MeleeData{
				Class: MeleeMedium, DefendScore: 15, AttackSpeed: 25,
				AttackCooldown: 120, RangeFeet: 3, ReadyingTicks: 20, OneHanded: false,
			},
		},
	}
}
