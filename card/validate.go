package card

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/gurbos/tcc/cardtype"
)

// ErrInvalid is wrapped by every structural validation failure.
var ErrInvalid = errors.New("invalid card definition")

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError lists every rule a card broke.
type ValidationError struct {
	ID     int64
	Key    string
	Pack   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + " " + f.Message
	}
	return fmt.Sprintf("card %d (%s) in %s: %s", e.ID, e.Key, e.Pack, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func cardValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterStructValidation(cardRules, Card{})
	})
	return validate
}

// Validate checks c against the structural rules the card database and the
// dueling engine rely on. It returns nil or a *ValidationError.
func Validate(c *Card) error {
	err := cardValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("Error validating card %d: %w", c.ID, err)
	}

	ve := &ValidationError{ID: c.ID, Key: c.Key, Pack: c.Pack}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: describe(fe),
		})
	}
	return ve
}

// cardRules holds the rules that depend on the card's category.
func cardRules(sl validator.StructLevel) {
	cur := sl.Current().Interface().(Card)
	c := &cur

	if !c.IsMonster() && !c.IsSpellTrap() {
		sl.ReportError(c.Category, "Category", "Category", "category", "")
		return
	}
	if !c.IsMonster() {
		return
	}

	if len(c.Primary) == 0 {
		sl.ReportError(c.Primary, "Primary", "Primary", "primary_type", "")
	}

	inRange := func(v int, field string, max int) {
		if v < 0 || v > max {
			sl.ReportError(v, field, field, "between", fmt.Sprintf("0-%d", max))
		}
	}
	switch {
	case c.IsLink():
		inRange(c.LinkRating, "LinkRating", 8)
	case c.HasMonsterType(cardtype.Xyz):
		inRange(c.Rank, "Rank", 13)
	default:
		inRange(c.Level, "Level", 13)
	}

	if c.HasMonsterType(cardtype.Pendulum) {
		if c.LeftScale != nil && *c.LeftScale < 0 {
			sl.ReportError(*c.LeftScale, "LeftScale", "LeftScale", "gte", "0")
		}
		if c.RightScale != nil && *c.RightScale < 0 {
			sl.ReportError(*c.RightScale, "RightScale", "RightScale", "gte", "0")
		}
	}
	if c.Atk != nil && *c.Atk < 0 {
		sl.ReportError(*c.Atk, "Atk", "Atk", "gte", "0")
	}
	if !c.IsLink() && c.Def != nil && *c.Def < 0 {
		sl.ReportError(*c.Def, "Def", "Def", "gte", "0")
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must have at most " + fe.Param() + " entries"
	case "between":
		return "must be between " + strings.Replace(fe.Param(), "-", " and ", 1)
	case "category":
		return "must name Monster, Spell or Trap"
	case "primary_type":
		return "needs one of Normal, Effect, Ritual, Fusion, Synchro, Xyz, Link or Token"
	}
	return "failed " + fe.Tag()
}
