// Package snapshot encodes the last committed snapshot of a session for
// storage.
//
// Format:
//
//	[magic:8 "SLGRSNAP"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (JSON snapshot, zstd-compressed when the header says so)
//	[checksum:32 SHA-256 of all bytes above]
//
// Integers are big-endian. A checksum mismatch or an unknown header
// version is an error; the caller treats the session as corrupt rather
// than silently starting over.
package snapshot
