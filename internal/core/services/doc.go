// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The pipeline service owns the run state machine; the stage services
// (extraction, planning, deck, narration) are independent of each other
// and of run bookkeeping.
package services
