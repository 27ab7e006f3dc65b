//go:build unix && !linux

package pages

// populateFlag is zero where MAP_POPULATE does not exist; callers still
// touch every page when they clear the buffer.
const populateFlag = 0
