// Package executor implements the single-threaded, cooperative
// per-hart task loop of spec.md §4.6/§5 (C7). It is grounded on the
// teacher's kernel/kmain boot sequence for the "loop until nothing left
// to do" shape, generalized from a one-shot boot sequence into a
// round-robin runnable queue, and on kernel/mem/vmm's override-hook
// idiom (already adopted by kernel/pagetable) for keeping the two
// privileged operations this loop performs — page-table activation and
// the user-mode round trip — mockable under `go test`.
package executor

import (
	"github.com/kestrel-os/kernel/kernel/arch"
	"github.com/kestrel-os/kernel/kernel/memspace"
	"github.com/kestrel-os/kernel/kernel/syscall"
	"github.com/kestrel-os/kernel/kernel/task"
)

// returnToUserFn and activatePageTableFn indirect the two privileged
// operations a real poll performs. Tests substitute fakes so no real
// sret/ertn or csrw satp ever executes under `go test`.
var (
	returnToUserFn      = arch.ReturnToUser
	activatePageTableFn = func(s *memspace.Space) { s.PageTable().Activate() }
)

// taskFuture is one runnable entry in the executor's queue: a task, the
// memory space its page table must be activated from, the syscall table
// it dispatches through, and (if a previous iteration's syscall awaited)
// the in-flight Future it is still polling.
type taskFuture struct {
	task         *task.Task
	space        *memspace.Space
	table        *syscall.Table
	pendingAsync syscall.Future
}

// Executor is a single hart's cooperative scheduler: a FIFO of runnable
// tasks, stepped one at a time. Per spec.md §5 there is no cross-hart
// migration, so one Executor exists per hart and is never shared.
type Executor struct {
	queue []*taskFuture
}

// New returns an empty executor.
func New() *Executor { return &Executor{} }

// Spawn enqueues t as runnable against space and table. t's status is
// set to Ready; its first Step call activates space's page table and
// enters user mode via its trap frame.
func (e *Executor) Spawn(t *task.Task, space *memspace.Space, table *syscall.Table) {
	t.SetStatus(task.Ready)
	e.queue = append(e.queue, &taskFuture{task: t, space: space, table: table})
}

// Len reports how many tasks are currently queued.
func (e *Executor) Len() int { return len(e.queue) }

// Run steps the executor until every spawned task has exited, mirroring
// the teacher's boot sequence's "loop until nothing left to do" shape
// generalized to a runnable queue instead of a single init task. It
// returns once Len reaches zero.
func (e *Executor) Run() {
	for e.Step() {
	}
}

// Step pops the front of the queue and runs one iteration of spec.md
// §4.6's task future loop against it, requeueing at the back if the
// task is still runnable afterward. It reports whether a task was
// stepped (false only when the queue was already empty).
func (e *Executor) Step() bool {
	if len(e.queue) == 0 {
		return false
	}
	tf := e.queue[0]
	e.queue = e.queue[1:]

	t := tf.task
	if t.NewStatus() == task.Exited {
		return true
	}

	t.SetStatus(task.Running)
	t.Stats.Polls++
	frame := t.Frame.Get()

	if tf.pendingAsync != nil {
		e.pollPending(tf, frame)
		return true
	}

	activatePageTableFn(tf.space)
	cause := returnToUserFn(frame)
	e.handleCause(tf, frame, cause)
	return true
}

func (e *Executor) pollPending(tf *taskFuture, frame arch.TrapFrame) {
	ctx := &syscall.Context{Task: tf.task, Frame: frame, Space: tf.space}
	result, errno, ready := tf.pendingAsync.Poll(ctx)
	if !ready {
		tf.task.SetStatus(task.Ready)
		e.queue = append(e.queue, tf)
		return
	}
	writeResult(frame, result, errno)
	tf.pendingAsync = nil
	tf.task.SetStatus(task.Ready)
	e.queue = append(e.queue, tf)
}

func (e *Executor) handleCause(tf *taskFuture, frame arch.TrapFrame, cause arch.Cause) {
	t := tf.task

	switch {
	case cause.Kind == arch.CauseSyscall:
		frame.AdvancePC(arch.TrapInstrWidth())
		ctx := &syscall.Context{Task: t, Frame: frame, Space: tf.space}
		out := tf.table.Dispatch(ctx)
		if out.Pending != nil {
			tf.pendingAsync = out.Pending
		} else {
			writeResult(frame, out.Result, out.Errno)
		}
		t.SetStatus(task.Ready)
		e.queue = append(e.queue, tf)

	case cause.IsPageFault():
		// spec.md §8 scenario E6: an unmapped access becomes a task
		// exit, not a signal; no other task is affected.
		exitFault(t)

	case cause.Kind == arch.CauseTimer || cause.Kind == arch.CauseSupervisorExternal:
		// Handled transparently at this layer: a real kernel would run
		// timer bookkeeping or dispatch to an interrupt controller here;
		// neither is in scope, so the task simply resumes.
		t.SetStatus(task.Ready)
		e.queue = append(e.queue, tf)

	default:
		exitFault(t)
	}
}

func exitFault(t *task.Task) {
	code := -1
	t.Process.ExitCode = &code
	t.SetStatus(task.Exited)
}

func writeResult(f arch.TrapFrame, result uint64, errno syscall.Errno) {
	if errno != 0 {
		f.SetReturnValue(uint64(-int64(errno)))
		return
	}
	f.SetReturnValue(result)
}
