// Package vversion exposes build version information the way
// cmd/arx/main.go does: ldflags-settable package vars defaulting to
// "dev"/"unknown", generalized from the original's lib/vistle/util/
// version.h/.cpp (which reads the same facts from compile-time
// preprocessor defines instead).
package vversion

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Tag, Hash and BuildTime are set via -ldflags "-X ...=..." at build
// time; they default to placeholders for `go run`/unreleased builds.
var (
	Tag       = "dev"
	Hash      = "unknown"
	BuildTime = "unknown"
)

// String returns tag + "-" + hash, the original's version::string().
func String() string {
	return Tag + "-" + Hash
}

// Flags summarizes the module's runtime configuration the way the
// original's version::flags() lists its compile-time #ifdef stack.
// Vistle's single-process/multi-process, shm/no-shm and scalar-width
// toggles are all build-invariant here (Go goroutines always run in
// one process, the store is always a shared Go value, and element
// width is a runtime ElementType, not a build choice), so Flags always
// reports the fixed labels "multi-process" and "shm", followed by the
// native int width of this build as "idx32" or "idx64".
func Flags() string {
	parts := []string{"multi-process", "shm", "idx" + strconv.Itoa(strconv.IntSize)}
	return strings.Join(parts, " ")
}

// OS returns the runtime operating system, the original's version::os().
func OS() string { return runtime.GOOS }

// Arch returns the runtime CPU architecture, the original's
// version::arch().
func Arch() string { return runtime.GOARCH }

const (
	Copyright = "2012 - 2024, the Vistle authors"
	License   = "LGPL-2.1-or-later"
	Homepage  = "https://vistle.io"
	GitHub    = "https://github.com/vistle/vistle"
)

// Banner renders the multi-line summary the original's version::
// banner() produces, printed by the CLI tools' `version` subcommands.
func Banner() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vistle version: %s\n", String())
	fmt.Fprintf(&b, "         flags: %s\n", Flags())
	fmt.Fprintf(&b, "      platform: %s %s\n", OS(), Arch())
	fmt.Fprintf(&b, "   %s - %s\n", Copyright, Homepage)
	return b.String()
}
