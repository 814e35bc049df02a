package astits

import "github.com/asticode/go-astikit"

// Logger is the logging seam shared by the asticode family of libraries.
// The muxer only ever logs non-fatal conditions through it: the PMT
// multi-section warning (§4.1) and the PCR-stream stall warning. An
// unknown table_id is not logged: ErrUnknownTableID is returned from
// Process (and so from Run), which stops muxing.
type Logger = astikit.CompleteLogger

// noopLogger is used when the caller doesn't supply one via
// MuxerOptionLogger, mirroring astikit.AdaptStdLogger(nil)'s behavior of
// silently discarding everything.
func noopLogger() Logger {
	return astikit.AdaptStdLogger(nil)
}
