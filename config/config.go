// Package config loads the card-set file that names the packs to compile and
// where their outputs go.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TCC_MAX_THREAD.
const EnvPrefix = "TCC"

// Set is a card set: the packs compiled together into one card database.
type Set struct {
	SetName          string   `mapstructure:"set_name" validate:"required"`
	Packs            []string `mapstructure:"packs" validate:"required,min=1,dive,required"`
	SkipCompilePacks []string `mapstructure:"skip_compile_packs" validate:"dive,required"`
	Setcodes         []string `mapstructure:"setcodes" validate:"dive,required"`

	ExpansionPath string `mapstructure:"expansion_path" validate:"required"`
	CardDB        string `mapstructure:"card_db"`
	PicPath       string `mapstructure:"pic_path"`
	PicFieldPath  string `mapstructure:"pic_field_path"`
	ScriptPath    string `mapstructure:"script_path"`

	DrawField   bool   `mapstructure:"draw_field"`
	DrawPics    bool   `mapstructure:"draw_pics"`
	MaxThread   int    `mapstructure:"max_thread" validate:"min=1"`
	StrictTypes bool   `mapstructure:"strict_types"`
	FontPath    string `mapstructure:"font_path"`
	CatalogDSN  string `mapstructure:"catalog_dsn"`

	// BasePath is the directory of the set file. Relative paths above are
	// resolved against it.
	BasePath string `mapstructure:"-"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("set_name", "")
	v.SetDefault("packs", []string{})
	v.SetDefault("skip_compile_packs", []string{})
	v.SetDefault("setcodes", []string{})
	v.SetDefault("expansion_path", "expansions")
	v.SetDefault("card_db", "")
	v.SetDefault("pic_path", "")
	v.SetDefault("pic_field_path", "")
	v.SetDefault("script_path", "")
	v.SetDefault("draw_field", true)
	v.SetDefault("draw_pics", true)
	v.SetDefault("max_thread", runtime.NumCPU())
	v.SetDefault("strict_types", false)
	v.SetDefault("font_path", "")
	v.SetDefault("catalog_dsn", "")
}

// flagKeys maps command line flags to the set keys they override.
var flagKeys = map[string]string{
	"output":     "expansion_path",
	"max-thread": "max_thread",
	"strict":     "strict_types",
	"font":       "font_path",
}

// Load reads the set file at path, applies defaults, TCC_* environment
// overrides and any changed flags, and resolves every path against the file's
// directory. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Set, error) {
	v := viper.New()
	defaults(v)
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("Error binding flag %s: %w", name, err)
				}
			}
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("Error reading set file %s: %w", path, err)
	}

	var s Set
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("Error decoding set file %s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("Error resolving set directory: %w", err)
	}
	s.BasePath = abs
	s.resolvePaths()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// resolvePaths fills derived defaults and makes every path absolute.
func (s *Set) resolvePaths() {
	s.ExpansionPath = s.abs(s.ExpansionPath)
	if s.CardDB == "" {
		s.CardDB = filepath.Join(s.ExpansionPath, s.SetName+".cdb")
	}
	s.CardDB = s.abs(s.CardDB)
	if s.PicPath == "" {
		s.PicPath = filepath.Join(s.ExpansionPath, "pics")
	}
	s.PicPath = s.abs(s.PicPath)
	if s.PicFieldPath == "" {
		s.PicFieldPath = filepath.Join(s.PicPath, "field")
	}
	s.PicFieldPath = s.abs(s.PicFieldPath)
	if s.ScriptPath == "" {
		s.ScriptPath = filepath.Join(s.ExpansionPath, "script")
	}
	s.ScriptPath = s.abs(s.ScriptPath)
	if s.FontPath != "" {
		s.FontPath = s.abs(s.FontPath)
	}
	for i, p := range s.Setcodes {
		s.Setcodes[i] = s.abs(p)
	}
}

func (s *Set) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.BasePath, p)
}

// PackDir returns the absolute directory of a pack named in the set file.
func (s *Set) PackDir(pack string) string { return s.abs(pack) }

// UtilityPath holds shared scripts copied next to the compiled card scripts.
func (s *Set) UtilityPath() string { return filepath.Join(s.BasePath, "utility") }

// Skipped reports whether pack is collected but not compiled.
func (s *Set) Skipped(pack string) bool {
	for _, p := range s.SkipCompilePacks {
		if filepath.Clean(p) == filepath.Clean(pack) {
			return true
		}
	}
	return false
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the set after defaults are applied.
func (s *Set) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("Error validating set file: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid set file: %s", strings.Join(msgs, "; "))
}
