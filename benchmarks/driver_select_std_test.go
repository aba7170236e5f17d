//go:build stdjson

package benchmarks_test

import "github.com/reoring/validdecode"

func init() {
	validdecode.SetJSONDriver(validdecode.StdJSONDriver())
}
