// SPDX-License-Identifier: MPL-2.0

package translate

import (
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"mvdan.cc/sh/v3/shell"

	"cargo-wapm/pkg/wapmtoml"
)

// DefaultMinDescriptionLength is the description length, in characters, below
// which a warning is reported.
const DefaultMinDescriptionLength = 10

var spdxIdentifier = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-]*\+?$`)

// Rules tunes the validator.
type Rules struct {
	// MinDescriptionLength is the shortest description accepted without a
	// warning. Zero disables the check.
	MinDescriptionLength int
}

// DefaultRules returns the rules used when no configuration overrides them.
func DefaultRules() Rules {
	return Rules{MinDescriptionLength: DefaultMinDescriptionLength}
}

type validator struct {
	diags []Diagnostic
}

func (v *validator) errorf(field string, code Code, format string, args ...any) {
	v.diags = append(v.diags, Diagnostic{
		Severity: SeverityError, Field: field, Code: code, Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) warnf(field string, code Code, format string, args ...any) {
	v.diags = append(v.diags, Diagnostic{
		Severity: SeverityWarning, Field: field, Code: code, Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks a mapped manifest and returns every finding, in field
// declaration order. It performs no I/O and never modifies m.
func Validate(m *wapmtoml.Manifest, rules Rules) []Diagnostic {
	v := &validator{}
	p := m.Package

	if strings.TrimSpace(p.Namespace) == "" {
		v.errorf("namespace", CodeNamespaceMissing,
			`no namespace is set; add "namespace" to the [package.metadata.wapm] table`)
	}

	if strings.TrimSpace(p.Name) == "" {
		v.errorf("name", CodeNameMissing, "the package name is empty")
	}

	switch {
	case p.Version == "":
		v.errorf("version", CodeVersionMissing, "the package version is empty")
	default:
		if _, err := semver.StrictNewVersion(p.Version); err != nil {
			v.errorf("version", CodeVersionInvalid, "%q is not a semantic version: %v", p.Version, err)
		}
	}

	description := strings.TrimSpace(p.Description)
	switch {
	case description == "":
		v.errorf("description", CodeDescriptionMissing,
			`the "description" field in Cargo.toml is empty or not set`)
	case rules.MinDescriptionLength > 0 && utf8.RuneCountInString(description) < rules.MinDescriptionLength:
		v.warnf("description", CodeDescriptionShort,
			"the description is shorter than %d characters", rules.MinDescriptionLength)
	}

	switch {
	case p.License == "" && p.LicenseFile == "":
		v.errorf("license", CodeLicenseMissing,
			`neither "license" nor "license-file" is set in Cargo.toml`)
	case p.License == "":
		v.errorf("license", CodeLicenseMissing,
			`"license" is not set; the registry requires an SPDX expression even when "license-file" is present`)
	case !isSPDXExpression(p.License):
		v.warnf("license", CodeLicenseExpression, "%q does not look like an SPDX license expression", p.License)
	}

	if p.WasmerExtraFlags != "" {
		if _, err := shell.Fields(p.WasmerExtraFlags, noEnv); err != nil {
			v.errorf("wasmer-extra-flags", CodeExtraFlagsInvalid,
				"%q cannot be split into arguments: %v", p.WasmerExtraFlags, err)
		}
	}

	if len(m.Modules) == 0 {
		v.errorf("module", CodeModulesMissing, "the manifest declares no modules")
	}
	for i, mod := range m.Modules {
		v.checkModule(i, mod)
	}

	for i, cmd := range m.Commands {
		if m.Module(cmd.Module) == nil {
			v.errorf(fmt.Sprintf("command[%d].module", i), CodeCommandModuleUnknown,
				"command %q refers to unknown module %q", cmd.Name, cmd.Module)
		}
	}

	for _, guest := range slices.Sorted(maps.Keys(m.Fs)) {
		if host := m.Fs[guest]; escapesPackage(host) {
			v.errorf(fmt.Sprintf("fs[%q]", guest), CodeFsOutside,
				"directory %q mapped to %q must be inside the package directory", host, guest)
		}
	}

	return v.diags
}

func (v *validator) checkModule(i int, mod wapmtoml.Module) {
	field := fmt.Sprintf("module[%d]", i)

	src := mod.Source
	switch {
	case strings.TrimSpace(src) == "":
		v.errorf(field+".source", CodeModuleSourceMissing, "module %q has no source artifact", mod.Name)
	case filepath.IsAbs(src) || path.IsAbs(filepath.ToSlash(src)):
		v.errorf(field+".source", CodeModuleSourceOutside,
			"module %q source %q must be relative to the manifest", mod.Name, src)
	case escapesPackage(src):
		v.errorf(field+".source", CodeModuleSourceOutside,
			"module %q source %q escapes the package directory", mod.Name, src)
	}

	for _, f := range mod.Bindings.ReferencedFiles() {
		if escapesPackage(f) {
			v.errorf(field+".bindings", CodeBindingsOutside,
				"module %q binding file %q must be inside the package directory", mod.Name, f)
		}
	}

	if valid, errs := mod.Abi.IsValid(); !valid {
		v.errorf(field+".abi", CodeModuleAbiInvalid, "module %q: %v", mod.Name, errs[0])
	}
}

// escapesPackage reports whether p is absolute or climbs above the directory
// it is relative to.
func escapesPackage(p string) bool {
	if filepath.IsAbs(p) || path.IsAbs(filepath.ToSlash(p)) {
		return true
	}
	clean := path.Clean(filepath.ToSlash(p))
	return clean == ".." || strings.HasPrefix(clean, "../")
}

// isSPDXExpression reports whether expr has the shape of an SPDX license
// expression: identifiers joined by AND, OR or WITH, optionally grouped with
// parentheses. Identifiers are not checked against the license list.
func isSPDXExpression(expr string) bool {
	tokens := strings.Fields(strings.NewReplacer("(", " ( ", ")", " ) ").Replace(expr))
	depth := 0
	expectOperand := true
	for _, tok := range tokens {
		switch tok {
		case "(":
			if !expectOperand {
				return false
			}
			depth++
		case ")":
			if expectOperand || depth == 0 {
				return false
			}
			depth--
		case "AND", "OR", "WITH":
			if expectOperand {
				return false
			}
			expectOperand = true
		default:
			if !expectOperand || !spdxIdentifier.MatchString(tok) {
				return false
			}
			expectOperand = false
		}
	}
	return len(tokens) > 0 && depth == 0 && !expectOperand
}

func noEnv(string) string { return "" }
