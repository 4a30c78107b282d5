// Package list executes client-submitted batches of buffered commands.
//
// A client opens a list, appends buffered commands to it (each request
// becomes one entry), seals it and asks for execution. Exactly one list
// executes at a time. Every tick the current entry moves at most one step:
//
//	InQueue -> InitialExecution -> CyclicExecution ... -> Finished
//
// Enter runs once when the entry leaves InitialExecution, Poll runs every
// tick in CyclicExecution until it reports done. An error in either aborts
// the whole list.
//
// Lists and entries come from fixed pools sized at construction. A list
// that finished or failed gives its entries back immediately and queues up
// for reuse; its final state can be queried until its id is claimed again.
package list
