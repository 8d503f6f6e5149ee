// Package goroutineid extracts the calling goroutine's numeric ID.
//
// Go has no public API for this; the runtime exposes it only as a prefix of
// runtime.Stack output ("goroutine 123 [running]:..."). This is adapted from
// the technique the eventloop package uses for its own reentrancy guard.
package goroutineid

import "runtime"

// Get returns the ID of the calling goroutine.
func Get() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
