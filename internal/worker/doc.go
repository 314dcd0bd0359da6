// Package worker runs the serialized upload loop over the queue.
package worker
