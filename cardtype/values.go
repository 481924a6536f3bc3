package cardtype

import "sort"

// Category is the major card category.
type Category uint64

const (
	None    Category = 0
	Monster Category = 0x1
	Spell   Category = 0x2
	Trap    Category = 0x4
)

// MonsterType is a monster subtype flag.
type MonsterType uint64

const (
	Normal   MonsterType = 0x10
	Effect   MonsterType = 0x20
	Fusion   MonsterType = 0x40
	Ritual   MonsterType = 0x80
	Spirit   MonsterType = 0x200
	Union    MonsterType = 0x400
	Gemini   MonsterType = 0x800
	Tuner    MonsterType = 0x1000
	Synchro  MonsterType = 0x2000
	Token    MonsterType = 0x4000
	Flip     MonsterType = 0x200000
	Toon     MonsterType = 0x400000
	Xyz      MonsterType = 0x800000
	Pendulum MonsterType = 0x1000000
	Nomi     MonsterType = 0x2000000
	Link     MonsterType = 0x4000000
)

// SpellType is the spell/trap subtype. NormalSpell is the zero code.
type SpellType uint64

const (
	NormalSpell SpellType = 0
	RitualSpell SpellType = 0x80
	QuickPlay   SpellType = 0x10000
	Continuous  SpellType = 0x20000
	Equip       SpellType = 0x40000
	Field       SpellType = 0x80000
	Counter     SpellType = 0x100000
	LinkSpell   SpellType = 0x4000000
)

// Attribute is a monster attribute flag.
type Attribute uint64

const (
	Earth  Attribute = 0x1
	Water  Attribute = 0x2
	Fire   Attribute = 0x4
	Wind   Attribute = 0x8
	Light  Attribute = 0x10
	Dark   Attribute = 0x20
	Divine Attribute = 0x40
)

// Race is a monster race. Codes come from the database schema's race table
// rather than from declaration order.
type Race uint64

// LinkArrow is a link marker flag.
type LinkArrow uint64

const (
	BottomLeft  LinkArrow = 0x1
	Bottom      LinkArrow = 0x2
	BottomRight LinkArrow = 0x4
	Left        LinkArrow = 0x8
	Right       LinkArrow = 0x20
	TopLeft     LinkArrow = 0x40
	Top         LinkArrow = 0x80
	TopRight    LinkArrow = 0x100
)

// Limit is a card-pool legality flag ("ot" column).
type Limit uint64

const (
	OCG        Limit = 0x1
	TCG        Limit = 0x2
	Anime      Limit = 0x4
	Illegal    Limit = 0x8
	VideoGame  Limit = 0x10
	Custom     Limit = 0x20
	Speed      Limit = 0x40
	PreRelease Limit = 0x100
	Rush       Limit = 0x200
	Legend     Limit = 0x400
	Hidden     Limit = 0x1000
)

var Categories = NewUniverse("category",
	Value[Category]{Tag: Monster, Name: "Monster"},
	Value[Category]{Tag: Spell, Name: "Spell"},
	Value[Category]{Tag: Trap, Name: "Trap"},
)

var MonsterTypes = NewUniverse("monster type",
	Value[MonsterType]{Tag: Normal, Name: "Normal"},
	Value[MonsterType]{Tag: Effect, Name: "Effect"},
	Value[MonsterType]{Tag: Fusion, Name: "Fusion"},
	Value[MonsterType]{Tag: Ritual, Name: "Ritual"},
	Value[MonsterType]{Tag: Spirit, Name: "Spirit"},
	Value[MonsterType]{Tag: Union, Name: "Union"},
	Value[MonsterType]{Tag: Gemini, Name: "Gemini"},
	Value[MonsterType]{Tag: Tuner, Name: "Tuner"},
	Value[MonsterType]{Tag: Synchro, Name: "Synchro"},
	Value[MonsterType]{Tag: Token, Name: "Token"},
	Value[MonsterType]{Tag: Flip, Name: "Flip"},
	Value[MonsterType]{Tag: Toon, Name: "Toon"},
	Value[MonsterType]{Tag: Xyz, Name: "Xyz"},
	Value[MonsterType]{Tag: Pendulum, Name: "Pendulum"},
	Value[MonsterType]{Tag: Nomi, Name: "Nomi"},
	Value[MonsterType]{Tag: Link, Name: "Link"},
)

var SpellTypes = NewUniverse("spell type",
	Value[SpellType]{Tag: NormalSpell, Name: "Normal"},
	Value[SpellType]{Tag: RitualSpell, Name: "Ritual"},
	Value[SpellType]{Tag: QuickPlay, Name: "QuickPlay", Text: "Quick-Play"},
	Value[SpellType]{Tag: Continuous, Name: "Continuous"},
	Value[SpellType]{Tag: Equip, Name: "Equip"},
	Value[SpellType]{Tag: Field, Name: "Field"},
	Value[SpellType]{Tag: Counter, Name: "Counter"},
	Value[SpellType]{Tag: LinkSpell, Name: "Link"},
)

var Attributes = NewUniverse("attribute",
	Value[Attribute]{Tag: Earth, Name: "Earth", Text: "EARTH"},
	Value[Attribute]{Tag: Water, Name: "Water", Text: "WATER"},
	Value[Attribute]{Tag: Fire, Name: "Fire", Text: "FIRE"},
	Value[Attribute]{Tag: Wind, Name: "Wind", Text: "WIND"},
	Value[Attribute]{Tag: Light, Name: "Light", Text: "LIGHT"},
	Value[Attribute]{Tag: Dark, Name: "Dark", Text: "DARK"},
	Value[Attribute]{Tag: Divine, Name: "Divine", Text: "DIVINE"},
)

var Races = NewUniverse("race",
	Value[Race]{Tag: 0x1, Name: "Warrior"},
	Value[Race]{Tag: 0x2, Name: "Spellcaster"},
	Value[Race]{Tag: 0x4, Name: "Fairy"},
	Value[Race]{Tag: 0x8, Name: "Fiend"},
	Value[Race]{Tag: 0x10, Name: "Zombie"},
	Value[Race]{Tag: 0x20, Name: "Machine"},
	Value[Race]{Tag: 0x40, Name: "Aqua"},
	Value[Race]{Tag: 0x80, Name: "Pyro"},
	Value[Race]{Tag: 0x100, Name: "Rock"},
	Value[Race]{Tag: 0x200, Name: "WingedBeast", Text: "Winged-Beast"},
	Value[Race]{Tag: 0x400, Name: "Plant"},
	Value[Race]{Tag: 0x800, Name: "Insect"},
	Value[Race]{Tag: 0x1000, Name: "Thunder"},
	Value[Race]{Tag: 0x2000, Name: "Dragon"},
	Value[Race]{Tag: 0x4000, Name: "Beast"},
	Value[Race]{Tag: 0x8000, Name: "BeastWarrior", Text: "Beast-Warrior"},
	Value[Race]{Tag: 0x10000, Name: "Dinosaur"},
	Value[Race]{Tag: 0x20000, Name: "Fish"},
	Value[Race]{Tag: 0x40000, Name: "SeaSerpent", Text: "Sea Serpent"},
	Value[Race]{Tag: 0x80000, Name: "Reptile"},
	Value[Race]{Tag: 0x100000, Name: "Psychic"},
	Value[Race]{Tag: 0x200000, Name: "DivineBeast", Text: "Divine-Beast"},
	Value[Race]{Tag: 0x400000, Name: "CreatorGod", Text: "Creator God"},
	Value[Race]{Tag: 0x800000, Name: "Wyrm"},
	Value[Race]{Tag: 0x1000000, Name: "Cyberse"},
	Value[Race]{Tag: 0x2000000, Name: "Cyborg"},
	Value[Race]{Tag: 0x4000000, Name: "MagicalKnight", Text: "Magical Knight"},
	Value[Race]{Tag: 0x8000000, Name: "HighDragon", Text: "High Dragon"},
	Value[Race]{Tag: 0x10000000, Name: "OmegaPsychic", Text: "Omega Psychic"},
	Value[Race]{Tag: 0x20000000, Name: "CelestialWarrior", Text: "Celestial Warrior"},
)

var LinkArrows = NewUniverse("link arrow",
	Value[LinkArrow]{Tag: BottomLeft, Name: "BottomLeft"},
	Value[LinkArrow]{Tag: Bottom, Name: "Bottom"},
	Value[LinkArrow]{Tag: BottomRight, Name: "BottomRight"},
	Value[LinkArrow]{Tag: Left, Name: "Left"},
	Value[LinkArrow]{Tag: Right, Name: "Right"},
	Value[LinkArrow]{Tag: TopLeft, Name: "TopLeft"},
	Value[LinkArrow]{Tag: Top, Name: "Top"},
	Value[LinkArrow]{Tag: TopRight, Name: "TopRight"},
)

var Limits = NewUniverse("card limit",
	Value[Limit]{Tag: OCG, Name: "OCG"},
	Value[Limit]{Tag: TCG, Name: "TCG"},
	Value[Limit]{Tag: Anime, Name: "Anime"},
	Value[Limit]{Tag: Illegal, Name: "Illegal"},
	Value[Limit]{Tag: VideoGame, Name: "VideoGame"},
	Value[Limit]{Tag: Custom, Name: "Custom"},
	Value[Limit]{Tag: Speed, Name: "Speed"},
	Value[Limit]{Tag: PreRelease, Name: "PreRelease"},
	Value[Limit]{Tag: Rush, Name: "Rush"},
	Value[Limit]{Tag: Legend, Name: "Legend"},
	Value[Limit]{Tag: Hidden, Name: "Hidden"},
)

// primaryTier holds the mutually descriptive monster subtypes. Exactly one of
// them governs how level, rank and link rating are encoded.
var primaryTier = map[MonsterType]bool{
	Token:   true,
	Normal:  true,
	Effect:  true,
	Ritual:  true,
	Fusion:  true,
	Synchro: true,
	Xyz:     true,
	Link:    true,
}

// IsPrimary reports whether t belongs to the primary tier.
func IsPrimary(t MonsterType) bool { return primaryTier[t] }

// Partition splits matched monster subtypes into the primary tier, sorted by
// descending precedence (code magnitude), and the remaining modifiers in
// their original order. The two results never share a value.
func Partition(types []MonsterType) (primary, secondary []MonsterType) {
	for _, t := range types {
		if primaryTier[t] {
			primary = append(primary, t)
		} else {
			secondary = append(secondary, t)
		}
	}
	sort.Slice(primary, func(i, j int) bool { return primary[i] > primary[j] })
	return primary, secondary
}
