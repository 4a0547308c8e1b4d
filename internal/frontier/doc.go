// Package frontier provides the deduplicating work queue shared by crawl
// workers.
//
// The frontier owns three pieces of state behind one mutex: the FIFO of
// pending tasks, the set of normalized URLs ever accepted, and the number of
// tasks handed to workers but not yet reported done. A crawl is finished when
// the queue is empty and nothing is in flight; Dequeue blocks until either a
// task arrives or that condition holds.
package frontier
