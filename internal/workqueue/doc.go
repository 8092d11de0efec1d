// Package workqueue provides a bounded worker pool that returns results in
// submission order.
//
// Producers call Submit (which blocks once Capacity items are outstanding),
// a single consumer calls Take in a loop, and Shutdown tears the pool down
// without starting any queued work. Worker errors and panics are reported on
// the Result rather than stopping the pool.
package workqueue
