// Package ael defines the capability contracts and bit-exact constants
// shared between the reactor's public surface and its pluggable polling
// backend: narrow interfaces, no implementation.
package ael

// File event masks. A registration is a subset of these bits; BARRIER only
// makes sense combined with WRITABLE.
const (
	NONE     = 0
	READABLE = 1 << 0 // fire when the descriptor is readable
	WRITABLE = 1 << 1 // fire when the descriptor is writable
	BARRIER  = 1 << 2 // with WRITABLE, fire the write callback before the read callback in the same iteration
)

// ProcessEvents flags, passed to Loop.ProcessEvents.
const (
	FileEvents      = 1 << 0
	TimeEvents      = 1 << 1
	AllEvents       = FileEvents | TimeEvents
	DontWait        = 1 << 2
	CallBeforeSleep = 1 << 3
	CallAfterSleep  = 1 << 4
)

// Sentinels.
const (
	NoMore         = -1 // returned by a TimeProc to request one-shot deletion
	DeletedTimerID = -1 // a timer's ID once logically deleted
)
