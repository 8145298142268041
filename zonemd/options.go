package zonemd

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Options is the fully-parsed set of CLI flags, validated before any
// operation runs.
type Options struct {
	Origin   string `validate:"required,fqdn"`
	ZoneFile string

	Calculate    bool
	Verify       bool
	Placeholders []uint8 `validate:"max=10,dive,min=1,max=240"`

	KeyFile    string
	UpdateFile string
	OutFile    string

	TreeDepth int `validate:"min=0,max=32"`
	TreeWidth int `validate:"min=1,max=255"`

	LegacyRData bool
	Timing      bool
	Quiet       bool
	LogFile     string
}

// Validate checks field-level constraints and the one cross-field rule this
// CLI has: at least one operation must actually be requested.
func (o *Options) Validate() error {
	if o.TreeWidth == 0 {
		o.TreeWidth = DefaultTreeWidth
	}
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("zonemd: invalid options: %w", err)
	}
	if !o.Calculate && !o.Verify && len(o.Placeholders) == 0 && o.UpdateFile == "" {
		return fmt.Errorf("zonemd: nothing to do: specify at least one of -c, -v, -p, or -u")
	}
	if len(o.Placeholders) > MaxPlaceholders {
		return fmt.Errorf("zonemd: at most %d -p algorithms may be given, got %d", MaxPlaceholders, len(o.Placeholders))
	}
	return nil
}

// UsesTree reports whether a tree-structured store was requested.
func (o *Options) UsesTree() bool {
	return o.TreeDepth > 0
}
