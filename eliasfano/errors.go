package eliasfano

import "errors"

// Error kinds specific to the Elias-Fano list and its select1 index
// (spec §7, "EF-specific").
var (
	ErrOutOfBound         = errors.New("eliasfano: index out of bound")
	ErrSpillTooSmall      = errors.New("eliasfano: select1 spill buffer too small")
	ErrBatchNonDecreasing = errors.New("eliasfano: batch is not non-decreasing")
)
