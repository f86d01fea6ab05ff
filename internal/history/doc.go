// Package history keeps completed benchmark runs in a SQLite database.
//
// Every successful run can be appended with its workload parameters and the
// aggregated summary, so results of different overlap rates and styles can be
// compared later with `mcbench history`. The pure Go modernc.org/sqlite driver
// is used so the binary stays cgo free.
package history
