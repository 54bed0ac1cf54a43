//go:build linux

package links

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// suspendPreemption pins the goroutine to its OS thread and lifts the thread
// to SCHED_FIFO so the kernel will not time-slice it mid-byte. Needs
// CAP_SYS_NICE; without it the thread pin alone has to do.
func suspendPreemption() func() {
	runtime.LockOSThread()

	prev, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		return runtime.UnlockOSThread
	}

	rt := &unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: 99,
	}
	if err := unix.SchedSetAttr(0, rt, 0); err != nil {
		return runtime.UnlockOSThread
	}

	return func() {
		unix.SchedSetAttr(0, prev, 0)
		runtime.UnlockOSThread()
	}
}
