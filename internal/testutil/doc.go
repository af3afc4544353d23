// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include filesystem setup (MustWriteFile, MustMkdirAll, MustChdir),
// WebAssembly fixtures (WasmModule) and a semaphore bounding container-backed tests.
package testutil
