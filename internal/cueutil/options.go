// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize is the largest file ParseAndDecode accepts by default (1MB).
const DefaultMaxFileSize int64 = 1 << 20

type (
	parseOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures ParseAndDecode.
	Option func(*parseOptions)
)

func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

// WithMaxFileSize sets the maximum allowed file size.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) {
		o.maxFileSize = size
	}
}

// WithConcrete sets whether all values must be concrete after unification.
// Configuration files leave most fields unset and pass false.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) {
		o.concrete = concrete
	}
}

// WithFilename sets the filename reported in errors.
func WithFilename(name string) Option {
	return func(o *parseOptions) {
		o.filename = name
	}
}
