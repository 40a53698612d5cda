package util

import "runtime"

// maxWorkers bounds memory: every worker may hold a tree-sitter parser per
// grammar plus a mapped source file.
const maxWorkers = 32

// DefaultWorkers is twice the core count, at least 4 and at most 32.
// Analysis spends most of its time inside cgo parser calls.
func DefaultWorkers() int {
	return min(max(runtime.NumCPU()*2, 4), maxWorkers)
}

// Workers returns n when positive, otherwise DefaultWorkers.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return DefaultWorkers()
}
