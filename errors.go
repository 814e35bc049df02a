package astits

import "errors"

// Sentinel errors, in the teacher's own style (muxer.go's
// MuxerErrorPIDNotFound family), extended to the rest of the muxing
// pipeline per spec.md §7's error taxonomy.
var (
	MuxerErrorPIDNotFound      = errors.New("astits: PID not found")
	MuxerErrorPIDAlreadyExists = errors.New("astits: PID already exists")
	MuxerErrorPCRPIDInvalid    = errors.New("astits: PCR PID invalid")
	MuxerErrorProgramNotFound  = errors.New("astits: program not found")

	ErrUnknownTableID  = errors.New("astits: unknown table_id")
	ErrSectionTooLarge = errors.New("astits: section payload exceeds maximum section length for this table_id")
)
