// Package metrics aggregates per-client benchmark results.
//
// Each client reports one line of the form
//
//	12.345678 secs, 310.25 MB/s
//
// The leading token of each comma-separated field is the value; the rest is
// a unit suffix. Lines are matched to clients purely by position, so the
// runner must emit them in submission order.
//
// # Basic Usage
//
//	summary, err := metrics.Aggregate(stdout)
//	if err != nil {
//	    return err // *ParseError for a malformed line
//	}
//	fmt.Fprintln(os.Stderr, metrics.Header)
//	fmt.Println(summary.Format())
//
// # Summation
//
// The total throughput uses Neumaier compensated summation so the result
// does not depend on float rounding drift across large client counts.
package metrics
