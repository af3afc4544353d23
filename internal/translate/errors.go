// SPDX-License-Identifier: MPL-2.0

package translate

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPublishableTarget is returned when a package has no bin or cdylib target.
	ErrNoPublishableTarget = errors.New("no publishable target")
	// ErrDuplicateModuleName is returned when two targets map to the same module
	// name or the same artifact file.
	ErrDuplicateModuleName = errors.New("duplicate module name")
	// ErrValidationFailed is returned when validation produced error diagnostics.
	ErrValidationFailed = errors.New("manifest validation failed")
)

type (
	// NoPublishableTargetError names the package without publishable targets.
	NoPublishableTargetError struct {
		Package string
	}

	// DuplicateModuleNameError describes a collision between two build targets.
	DuplicateModuleNameError struct {
		Package string
		// Field is "name" or "source", whichever collided.
		Field string
		// Value is the colliding module name or artifact path.
		Value string
		// Targets are the two cargo targets that collide.
		Targets [2]string
	}

	// ValidationFailedError carries the diagnostics that blocked a manifest.
	ValidationFailedError struct {
		Package     string
		Diagnostics []Diagnostic
	}
)

// Error implements the error interface.
func (e *NoPublishableTargetError) Error() string {
	return fmt.Sprintf("package %q has no bin or cdylib target to publish", e.Package)
}

// Unwrap returns ErrNoPublishableTarget for errors.Is() compatibility.
func (e *NoPublishableTargetError) Unwrap() error { return ErrNoPublishableTarget }

// Error implements the error interface.
func (e *DuplicateModuleNameError) Error() string {
	return fmt.Sprintf("package %q: targets %q and %q both map to module %s %q",
		e.Package, e.Targets[0], e.Targets[1], e.Field, e.Value)
}

// Unwrap returns ErrDuplicateModuleName for errors.Is() compatibility.
func (e *DuplicateModuleNameError) Unwrap() error { return ErrDuplicateModuleName }

// Error implements the error interface.
func (e *ValidationFailedError) Error() string {
	errs, warnings := CountBySeverity(e.Diagnostics)
	return fmt.Sprintf("package %q: manifest has %d error(s) and %d warning(s)", e.Package, errs, warnings)
}

// Unwrap returns ErrValidationFailed for errors.Is() compatibility.
func (e *ValidationFailedError) Unwrap() error { return ErrValidationFailed }
