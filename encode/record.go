// Package encode packs resolved cards into the integer and text rows of the
// card database read by the dueling engine.
package encode

import (
	"fmt"
	"strings"

	"github.com/gurbos/tcc/card"
	"github.com/gurbos/tcc/cardtype"
)

// StringSlots is the number of auxiliary strings a text row holds.
const StringSlots = 16

// UnknownStat is stored for "?" attack or defense.
const UnknownStat = -2

const separator = "----------------------------------------"

// Data is the integer row of a card.
type Data struct {
	ID        int64
	Ot        int64
	Alias     int64
	Setcode   int64
	Type      int64
	Atk       int64
	Def       int64
	Level     int64
	Race      int64
	Attribute int64
	Category  int64
}

// Text is the text row of a card.
type Text struct {
	ID      int64
	Name    string
	Desc    string
	Strings [StringSlots]string
}

// Record is everything written to the card database for one card. Both rows
// are keyed by the card id.
type Record struct {
	Data Data
	Text Text
}

func (r Record) ID() int64 { return r.Data.ID }

// Encode packs c. Text fields are taken as they are, so macros must already
// have been substituted.
func Encode(c *card.Card, codes SetCodes) Record {
	d := Data{
		ID:        c.ID,
		Ot:        int64(limits(c.Limits)),
		Alias:     c.Alias,
		Setcode:   codes.Pack(c.Set),
		Type:      typeFlags(c),
		Level:     levelField(c),
		Race:      int64(cardtype.Sum(c.Races)),
		Attribute: int64(cardtype.Sum(c.Attributes)),
		Atk:       UnknownStat,
		Def:       UnknownStat,
	}

	if c.IsMonster() {
		d.Atk = stat(c.Atk)
		d.Def = stat(c.Def)
		if c.HasMonsterType(cardtype.Link) {
			d.Def = int64(cardtype.Sum(c.LinkArrows))
		}
	}

	t := Text{ID: c.ID, Name: c.Name, Desc: Description(c)}
	copy(t.Strings[:], c.Strings)

	return Record{Data: d, Text: t}
}

func limits(ls []cardtype.Limit) cardtype.Limit {
	if len(ls) == 0 {
		return cardtype.Custom
	}
	return cardtype.Sum(ls)
}

func typeFlags(c *card.Card) int64 {
	v := int64(c.Category)
	switch {
	case c.IsSpellTrap():
		v |= int64(c.SpellType)
	case c.IsMonster():
		v |= int64(cardtype.Sum(c.MonsterTypes()))
	}
	return v
}

// levelField packs level, rank or link rating (chosen by the governing
// subtype) with the pendulum scales in bits 24 and 16.
func levelField(c *card.Card) int64 {
	gov, ok := c.Governing()
	if !ok {
		return 0
	}

	var v int64
	switch gov {
	case cardtype.Link:
		v = int64(c.LinkRating)
	case cardtype.Xyz:
		v = int64(c.Rank)
	default:
		v = int64(c.Level)
	}

	if c.HasMonsterType(cardtype.Pendulum) {
		v |= int64(deref(c.LeftScale))<<24 | int64(deref(c.RightScale))<<16
	}
	return v
}

func stat(p *int) int64 {
	if p == nil {
		return UnknownStat
	}
	return int64(*p)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Description composes the text row's description. Pendulum monsters with a
// pendulum effect get a sectioned block; every other card gets its effect,
// or its flavor text when the effect is blank.
func Description(c *card.Card) string {
	effect := strings.TrimSpace(c.Effect)
	if c.HasMonsterType(cardtype.Pendulum) && strings.TrimSpace(c.PendulumEffect) != "" {
		var b strings.Builder
		fmt.Fprintf(&b, "Pendulum Scale = %d\n", deref(c.LeftScale))
		b.WriteString("[ Pendulum Effect ]\n")
		b.WriteString(strings.TrimSpace(c.PendulumEffect))
		b.WriteString("\n" + separator + "\n")
		if effect != "" {
			b.WriteString("[ Monster Effect ]\n")
			b.WriteString(effect)
		} else {
			b.WriteString("[ Flavor Text ]\n")
			b.WriteString(strings.TrimSpace(c.Flavor))
		}
		return b.String()
	}
	if effect != "" {
		return effect
	}
	return strings.TrimSpace(c.Flavor)
}
