// Package task splits a fixed universe of file tasks among benchmark clients.
//
// Task identifiers are integers in [0, nfiles). Each client receives a
// private range carved sequentially from the front of the universe, plus the
// shared range formed by the trailing commons identifiers, which every client
// operates on when the overlap percentage is non-zero.
//
// # Partitioning
//
//	layout, err := task.NewLayout(1000, 4, 50)
//	// layout.FilesPerClient == 250, layout.Commons == 125
//	// layout.Shared() == [875, 1000)
//	// layout.Private(1) == [125, 250)
//
// # Arrangement
//
// Arrange merges a private and a shared range into the order a client issues
// its operations in:
//   - StyleFront: shared ids first, then private ids
//   - StyleRear: private ids first, then shared ids
//   - StyleRandom: ids drawn from either range with probability proportional
//     to its size, remaining ids of the longer range flushed at the end
//
// # Task Lists
//
// FormatList and ParseList convert between id sequences and the --tasks
// argument of the per-client benchmark program ("1,2,5-9").
package task
