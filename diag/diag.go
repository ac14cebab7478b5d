// Package diag implements the fixed diagnostic registry and the collecting
// bag described in spec.md §6.3/§7: every user-visible error carries a code
// from a fixed registry, and the compilation aborts after 100 errors or on
// any Critical.
package diag

import (
	"fmt"

	"github.com/hexashader/hxlc/internal/arena"
)

// Severity ranks a diagnostic (spec.md §6.3).
type Severity int

const (
	Info Severity = iota
	Warn
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warn:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Code is a fixed diagnostic identifier, e.g. HL001.
type Code string

// Registry entries, grouped by the error-handling table in spec.md §7.
const (
	// Lexical / syntactic
	InvalidToken    Code = "HL001"
	ExpectedToken   Code = "HL002"
	UnexpectedEOF   Code = "HL003"

	// Symbol
	SymbolNotFound    Code = "HL100"
	SymbolRedefined   Code = "HL101"
	SymbolAmbiguous   Code = "HL102"
	SymbolKindMismatch Code = "HL103"

	// Type
	TypeMismatch     Code = "HL200"
	NoOverload       Code = "HL201"
	AmbiguousCall    Code = "HL202"
	InvalidSwizzle   Code = "HL203"

	// Semantic
	UseBeforeDeclaration Code = "HL300"
	SelfInitializer      Code = "HL301"

	// IL codec
	UnknownOpcode Code = "HL400"

	// Assembly I/O
	AssemblyNotFound     Code = "HL500"
	AssemblyParseError   Code = "HL501"
	AssemblyTruncated    Code = "HL502"
	AssemblyVersionSkew  Code = "HL503"
	AssemblyChecksumFail Code = "HL504"
	ReferenceNotSupplied Code = "HL505"
)

// maxErrors is the hard abort threshold (spec.md §6.3).
const maxErrors = 100

// Diagnostic is one recorded finding.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Span     arena.TextSpan
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
}

// Bag collects diagnostics for one compilation and tracks abort conditions.
// Zero value is ready to use.
type Bag struct {
	items       []Diagnostic
	errorCount  int
	aborted     bool
	errorBudget int // 0 means use maxErrors
	overrides   map[Code]Severity
}

// SetErrorBudget replaces the default 100-error abort threshold, e.g. from a
// loaded compiler-options document (SPEC_FULL.md §2 "Configuration").
func (b *Bag) SetErrorBudget(n int) { b.errorBudget = n }

// SetSeverityOverrides replaces the severity a diagnostic is reported at,
// per code, ahead of the abort-threshold accounting in Report.
func (b *Bag) SetSeverityOverrides(overrides map[Code]Severity) { b.overrides = overrides }

// Report records d, and flips Aborted() once the compilation must stop
// (spec.md §6.3: "aborts after 100 errors or on any Critical").
func (b *Bag) Report(d Diagnostic) {
	if sev, ok := b.overrides[d.Code]; ok {
		d.Severity = sev
	}
	b.items = append(b.items, d)
	if d.Severity == Critical {
		b.aborted = true
		return
	}
	if d.Severity == Error {
		b.errorCount++
		budget := maxErrors
		if b.errorBudget > 0 {
			budget = b.errorBudget
		}
		if b.errorCount >= budget {
			b.aborted = true
		}
	}
}

// Reportf is a convenience wrapper building the Diagnostic inline.
func (b *Bag) Reportf(code Code, sev Severity, span arena.TextSpan, format string, args ...interface{}) {
	b.Report(Diagnostic{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...), Span: span})
}

// Aborted reports whether the compilation must stop processing further
// units/passes.
func (b *Bag) Aborted() bool { return b.aborted }

// Items returns all recorded diagnostics in report order.
func (b *Bag) Items() []Diagnostic { return b.items }

// HasErrors reports whether any Error or Critical diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error || d.Severity == Critical {
			return true
		}
	}
	return false
}
