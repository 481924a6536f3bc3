package card

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gurbos/tcc/cardtype"
)

// Card is a definition after its descriptors have been resolved against the
// value universes and its text trimmed.
type Card struct {
	Key  string
	Pack string `validate:"required"`

	ID    int64  `validate:"gt=0"`
	Alias int64  `validate:"gte=0"`
	Set   string
	Name  string `validate:"required"`

	Category  cardtype.Category
	SpellType cardtype.SpellType

	// Primary is sorted by descending precedence; Primary[0] governs.
	Primary    []cardtype.MonsterType
	Secondary  []cardtype.MonsterType
	Attributes []cardtype.Attribute
	Races      []cardtype.Race
	LinkArrows []cardtype.LinkArrow
	Limits     []cardtype.Limit

	Level      int
	Rank       int
	LinkRating int
	LeftScale  *int
	RightScale *int

	// Nil means unknown ("?").
	Atk *int
	Def *int

	Flavor         string
	Effect         string
	PendulumEffect string
	Strings        []string `validate:"max=16"`

	GeneratePic    bool
	GenerateScript bool
	ShowLevel      bool
	ShowRank       bool
}

func (c *Card) IsMonster() bool   { return c.Category == cardtype.Monster }
func (c *Card) IsSpellTrap() bool { return c.Category == cardtype.Spell || c.Category == cardtype.Trap }

// IsLink is true for Link spells and Link monsters.
func (c *Card) IsLink() bool {
	return (c.IsSpellTrap() && c.SpellType == cardtype.LinkSpell) || c.HasMonsterType(cardtype.Link)
}

// HasMonsterType reports whether the card is a monster carrying any of types.
func (c *Card) HasMonsterType(types ...cardtype.MonsterType) bool {
	if !c.IsMonster() {
		return false
	}
	for _, t := range types {
		if slices.Contains(c.Primary, t) || slices.Contains(c.Secondary, t) {
			return true
		}
	}
	return false
}

// Governing returns the highest-precedence primary subtype.
func (c *Card) Governing() (cardtype.MonsterType, bool) {
	if !c.IsMonster() || len(c.Primary) == 0 {
		return 0, false
	}
	return c.Primary[0], true
}

// MonsterTypes returns primary and secondary subtypes together.
func (c *Card) MonsterTypes() []cardtype.MonsterType {
	return append(slices.Clone(c.Primary), c.Secondary...)
}

func (c *Card) IsFieldSpell() bool {
	return c.Category == cardtype.Spell && c.SpellType == cardtype.Field
}

// ArtworkPath returns the card's artwork, preferring a .png over a .jpg. The
// returned path may not exist.
func (c *Card) ArtworkPath(exists func(string) bool) string {
	base := filepath.Join(c.Pack, "artwork", strconv.FormatInt(c.ID, 10))
	if exists(base + ".png") {
		return base + ".png"
	}
	return base + ".jpg"
}

// ScriptPath is the hand-authored (or generated) script for the card.
func (c *Card) ScriptPath() string {
	return filepath.Join(c.Pack, "script", fmt.Sprintf("c%d.lua", c.ID))
}

// Texts returns pointers to every text field that takes macros.
func (c *Card) Texts() []*string {
	out := []*string{&c.Flavor, &c.Effect, &c.PendulumEffect}
	for i := range c.Strings {
		out = append(out, &c.Strings[i])
	}
	return out
}

// Resolve classifies d's descriptors and applies field defaults. It fails
// only on malformed stats or, with a strict resolver, unknown descriptor
// tokens. Structural rules are checked separately by Validate.
func Resolve(d Definition, r cardtype.Resolver) (*Card, error) {
	c := &Card{
		Key:            d.Key,
		Pack:           d.Pack,
		ID:             d.ID,
		Alias:          d.Alias,
		Set:            d.Set,
		Name:           strings.TrimSpace(d.Name),
		Category:       cardtype.MatchFirst(d.Type, cardtype.Categories, cardtype.None),
		Limits:         cardtype.MatchAll(d.CardLimit, cardtype.Limits),
		Strings:        slices.Clone(d.Strings),
		GeneratePic:    boolOr(d.GeneratePic, true),
		GenerateScript: boolOr(d.GenerateScript, true),
		ShowLevel:      boolOr(d.ShowLevel, true),
		ShowRank:       boolOr(d.ShowRank, true),
	}

	var errs []error
	check := func(field, text string, m ...cardtype.Matcher) {
		if err := r.Check(field, text, m...); err != nil {
			errs = append(errs, err)
		}
	}
	check("type", d.Type, cardtype.Categories, cardtype.MonsterTypes, cardtype.SpellTypes)
	check("card_limit", d.CardLimit, cardtype.Limits)

	switch {
	case c.IsSpellTrap():
		c.SpellType = cardtype.MatchFirst(d.Type, cardtype.SpellTypes, cardtype.NormalSpell)
		c.Effect = strings.TrimSpace(d.Effect)

	case c.IsMonster():
		c.Primary, c.Secondary = cardtype.Partition(cardtype.MatchAll(d.Type, cardtype.MonsterTypes))
		c.Attributes = cardtype.MatchAll(d.Attribute, cardtype.Attributes)
		c.Races = cardtype.MatchAll(d.Race, cardtype.Races)
		check("attribute", d.Attribute, cardtype.Attributes)
		check("race", d.Race, cardtype.Races)

		switch {
		case c.HasMonsterType(cardtype.Link):
			c.LinkRating = firstInt(d.Link, d.Level)
		case c.HasMonsterType(cardtype.Xyz):
			c.Rank = firstInt(d.Rank, d.Level)
		default:
			c.Level = firstInt(d.Level)
		}
		c.LeftScale = firstPtr(d.LeftScale, d.Scale)
		c.RightScale = firstPtr(d.RightScale, d.Scale)

		if c.IsLink() {
			c.LinkArrows = cardtype.MatchAll(d.LinkArrow, cardtype.LinkArrows)
			check("link_arrow", d.LinkArrow, cardtype.LinkArrows)
		}

		if n, ok, err := ParseStat(d.Atk); err != nil {
			errs = append(errs, fmt.Errorf("atk: %w", err))
		} else if ok {
			c.Atk = &n
		}
		if n, ok, err := ParseStat(d.Def); err != nil {
			errs = append(errs, fmt.Errorf("def: %w", err))
		} else if ok {
			c.Def = &n
		}

		c.Flavor = strings.TrimSpace(d.Flavor)
		c.Effect = strings.TrimSpace(d.Effect)
		c.PendulumEffect = strings.TrimSpace(d.PendulumEffect)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("card %d (%s): %w", d.ID, d.Key, errors.Join(errs...))
	}
	return c, nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func firstInt(ps ...*int) int {
	if p := firstPtr(ps...); p != nil {
		return *p
	}
	return 0
}

func firstPtr(ps ...*int) *int {
	for _, p := range ps {
		if p != nil {
			v := *p
			return &v
		}
	}
	return nil
}
