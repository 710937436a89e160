package glimpse

import "time"

// SiteRule holds extraction hints for sites whose dot-prefixed hostname
// contains Domain.
type SiteRule struct {
	Domain string `yaml:"domain"`
	Name   string `yaml:"name"`

	// WaitFor is a selector whose presence signals rendered content.
	WaitFor string `yaml:"waitFor"`

	ImageSelector       string `yaml:"imageSelector"`
	TitleSelector       string `yaml:"titleSelector"`
	DescriptionSelector string `yaml:"descriptionSelector"`

	// MinImageSize overrides the global minimum candidate width and height.
	MinImageSize int `yaml:"minImageSize"`

	// PreferFirstVisible selects the first visible candidate instead of scoring.
	PreferFirstVisible bool `yaml:"preferFirstVisible"`

	SinglePageApp bool          `yaml:"singlePageApp"`
	SettleDelay   time.Duration `yaml:"settleDelay"`

	// MinInterval is the minimum spacing between batch loads of the site.
	MinInterval time.Duration `yaml:"minInterval"`
}

// SiteRuleMatcher finds the rule for a hostname.
type SiteRuleMatcher interface {
	// Match returns the first registered rule whose domain pattern is a
	// substring of hostname, or nil if none matches.
	Match(hostname string) *SiteRule
}
