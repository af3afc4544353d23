// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// ContainerSemaphore returns a process-wide buffered channel that limits concurrent
// container operations in tests. Acquire a slot by sending, release by receiving:
//
//	sem := testutil.ContainerSemaphore()
//	sem <- struct{}{}
//	defer func() { <-sem }()
//
// The capacity is CARGO_WAPM_TEST_CONTAINER_PARALLEL (if set) or min(GOMAXPROCS, 2).
var ContainerSemaphore = sync.OnceValue(func() chan struct{} {
	return make(chan struct{}, containerParallelism())
})

func containerParallelism() int {
	if v := os.Getenv("CARGO_WAPM_TEST_CONTAINER_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return min(runtime.GOMAXPROCS(0), 2)
}
