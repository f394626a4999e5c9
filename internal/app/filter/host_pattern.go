package filter

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// HostPatternConfig represents the configuration for HostPatternFilter.
type HostPatternConfig struct {
	// Patterns are glob patterns over the host. "*" matches one label,
	// "**" matches any number of labels.
	Patterns []string `yaml:"patterns" mapstructure:"patterns" validate:"required,min=1,dive,required"`
	// Mode is "allow" (only matching hosts pass) or "deny" (matching hosts are rejected).
	Mode string `yaml:"mode" mapstructure:"mode" default:"allow" validate:"oneof=allow deny"`
}

// HostPatternFilter admits URLs by host.
type HostPatternFilter struct {
	config *HostPatternConfig
	globs  []glob.Glob
}

// NewHostPatternFilter creates a new host pattern filter.
func NewHostPatternFilter() *HostPatternFilter {
	return &HostPatternFilter{}
}

func (f *HostPatternFilter) Name() string {
	return "host_pattern_filter"
}

func (f *HostPatternFilter) Description() string {
	return "Admits or rejects URLs whose host matches the configured glob patterns"
}

func (f *HostPatternFilter) ReturnCodes() []string {
	return []string{"host_not_allowed", "host_denied"}
}

func (f *HostPatternFilter) ValidateConfig(settings map[string]any) error {
	var config HostPatternConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &config,
		TagName: "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	globs := make([]glob.Glob, 0, len(config.Patterns))
	for _, p := range config.Patterns {
		g, err := glob.Compile(strings.ToLower(p), '.')
		if err != nil {
			return errors.Wrapf(err, "invalid host pattern %q", p)
		}
		globs = append(globs, g)
	}

	f.config = &config
	f.globs = globs
	zlog.Info().Msgf("host pattern filter config: %+v", config)
	return nil
}

func (f *HostPatternFilter) AppliesTo(source Source) bool {
	// Applies to every source
	return true
}

func (f *HostPatternFilter) Check(ctx context.Context, req Request) Result {
	// If config is not set, accept all URLs
	if f.config == nil {
		return Accept()
	}

	matched := f.matches(req.Host())
	switch f.config.Mode {
	case "deny":
		if matched {
			return Reject("host_denied")
		}
	default:
		if !matched {
			return Reject("host_not_allowed")
		}
	}
	return Accept()
}

func (f *HostPatternFilter) matches(host string) bool {
	if host == "" {
		return false
	}
	for _, g := range f.globs {
		if g.Match(host) {
			return true
		}
	}
	return false
}

func init() {
	Register("host_pattern_filter", func() Filter {
		return &HostPatternFilter{}
	})
}
