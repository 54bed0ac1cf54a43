//go:build !linux

package links

import "runtime"

// suspendPreemption pins the goroutine to its OS thread. Platforms without a
// real-time scheduling knob get no stronger guarantee than that.
func suspendPreemption() func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}
