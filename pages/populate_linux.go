//go:build linux

package pages

import "golang.org/x/sys/unix"

// populateFlag pre-faults every page of a new mapping.
const populateFlag = unix.MAP_POPULATE
