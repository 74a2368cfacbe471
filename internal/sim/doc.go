// Package sim runs the demonstration as a single-threaded tick loop.
//
// Every [Loop.Tick] runs, in order:
//
//  1. input, which may edit parameters through the [Surface]
//  2. command dispatch (restart, toggle trace, clear trace)
//  3. one simulation step, then body transforms copied to the presentation
//  4. trace sampling
//  5. observer notification with a [Frame]
//
// Parameters are written only in the first phase and read by restart in the
// second, so none of this needs locking. Front ends running on other
// goroutines hand their edits to the loop goroutine and apply them from an
// [Input].
package sim
