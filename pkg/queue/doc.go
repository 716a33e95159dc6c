/*
Package queue implements the per-project FIFO log queues that decouple
ingestion from storage.

Each project owns one list under queue:logs:<project-id>. Producers
push msgpack-encoded LogEvents at the head; storage workers pop batches
from the tail, so a single enqueue batch is always drained in order.
The KV-backed queue is the coordination primitive between the two
sides; there is no in-process channel between them.

Backpressure is a depth guard: when a queue holds maxDepth records,
Enqueue and EnqueueBatch return types.ErrQueueFull, which the RPC
layer surfaces as resource exhaustion and the gateway as HTTP 503.
*/
package queue
