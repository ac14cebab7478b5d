// Package config loads compiler options from a YAML document (SPEC_FULL.md
// §2's configuration surface): the diagnostic error budget, per-code
// severity overrides, and which optimizer passes to skip.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/optimize"
	"gopkg.in/yaml.v3"
)

// Options is the decoded shape of a compiler options document, e.g.:
//
//	errorBudget: 50
//	severityOverrides:
//	  HL100: warning
//	disabledPasses:
//	  - LoopUnroller
type Options struct {
	ErrorBudget       int               `yaml:"errorBudget"`
	SeverityOverrides map[string]string `yaml:"severityOverrides"`
	DisabledPasses    []string          `yaml:"disabledPasses"`
}

// Load decodes a single YAML options document from r.
func Load(r io.Reader) (*Options, error) {
	var opts Options
	if err := yaml.NewDecoder(r).Decode(&opts); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode options: %w", err)
	}
	return &opts, nil
}

// Apply installs o's error budget and severity overrides onto bag. Callers
// apply Options before Compile reports any diagnostic, since Report
// consults the overrides in place as it records each one.
func (o *Options) Apply(bag *diag.Bag) error {
	if o == nil {
		return nil
	}
	if o.ErrorBudget > 0 {
		bag.SetErrorBudget(o.ErrorBudget)
	}
	if len(o.SeverityOverrides) == 0 {
		return nil
	}
	overrides := make(map[diag.Code]diag.Severity, len(o.SeverityOverrides))
	for code, name := range o.SeverityOverrides {
		sev, ok := parseSeverity(name)
		if !ok {
			return fmt.Errorf("config: unknown severity %q for code %s", name, code)
		}
		overrides[diag.Code(code)] = sev
	}
	bag.SetSeverityOverrides(overrides)
	return nil
}

func parseSeverity(name string) (diag.Severity, bool) {
	switch strings.ToLower(name) {
	case "info":
		return diag.Info, true
	case "warn", "warning":
		return diag.Warn, true
	case "error":
		return diag.Error, true
	case "critical":
		return diag.Critical, true
	}
	return 0, false
}

// FilterPasses drops every optimize.Pass named in o.DisabledPasses,
// preserving the remaining passes' relative order (spec.md §4.6's fixed
// schedule, minus whatever the options document opts out of).
func (o *Options) FilterPasses(passes []optimize.Pass) []optimize.Pass {
	if o == nil || len(o.DisabledPasses) == 0 {
		return passes
	}
	disabled := make(map[string]bool, len(o.DisabledPasses))
	for _, name := range o.DisabledPasses {
		disabled[name] = true
	}
	out := make([]optimize.Pass, 0, len(passes))
	for _, p := range passes {
		if !disabled[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}
