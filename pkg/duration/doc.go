// Package duration parses human-readable durations such as "10m", "1h30m",
// "2d" or "1w 3d" into time.Duration values.
//
// It exists because run TTLs and delays are configured as free-form text by
// end users, and time.ParseDuration neither accepts units above hours nor
// tolerates the relaxed formats people actually type. The parser is
// deliberately forgiving: an input it cannot understand yields (0, false)
// rather than an error, which callers treat as "do not schedule anything".
//
// # Usage
//
//	if d, ok := duration.Parse(run.TTL); ok {
//	    deadline := time.Now().Add(d)
//	    // schedule expiry at deadline
//	}
package duration
