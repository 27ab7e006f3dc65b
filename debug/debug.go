// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go - Cold-path diagnostic logging for all cores
//
// Purpose:
//   - Logs bring-up milestones and error paths as "PREFIX: message" lines.
//   - Provides the loud halt used for configuration errors on primitives.
//
// Notes:
//   - Writes through the stdlib logger (stderr by default); lines from
//     different cores may interleave, which is cosmetic only.
//   - SetOutput lets tests capture diagnostics.
//
// ⚠️ Never invoke in spin loops; use only around phase boundaries.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"io"
	"log"
	"os"
)

var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

// SetOutput redirects every diagnostic line to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// DropError logs "prefix: err", or just the prefix when err is nil
// (used as a cheap trace tag).
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		logger.Print(prefix + ": " + err.Error())
		return
	}
	logger.Print(prefix)
}

// DropMessage logs a tagged milestone line.
//
//go:nosplit
//go:inline
func DropMessage(prefix, message string) {
	logger.Print(prefix + ": " + message)
}

// Fatal reports a programming error and halts the calling core by panicking.
// Used for configuration errors such as a zero-party barrier.
func Fatal(prefix, message string) {
	msg := prefix + ": " + message
	logger.Print("FATAL " + msg)
	panic(msg)
}
