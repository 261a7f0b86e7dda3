// Package workflow implements the SDLC wizard state machine.
//
// The [Controller] owns the single [State] of a session and is the only thing
// that mutates it. Every transition is mirrored to a [store.Adapter] before
// the call returns, and a controller built over a populated store resumes
// where the previous process left off.
//
// States are intake, each registered step, and terminal:
//
//	intake --Start--> first step --Approve--> next step ... --Approve--> terminal
//
// NavigateTo jumps between reachable steps, SubmitFeedback invalidates a
// step's content and approval so it is generated again, and Reset returns to
// intake from anywhere.
//
// Generation itself lives in the orchestrator package. It reads [State]
// through [Controller.Snapshot] and writes results back through
// [Controller.RecordGeneration], which drops results whose [Ticket] has gone
// stale.
package workflow
