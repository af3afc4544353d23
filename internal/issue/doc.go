// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, suggestions and optionally an
// entry of the issue catalog, a Markdown page rendered with glamour when the
// CLI reports a failure.
package issue
