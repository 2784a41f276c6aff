// Package workqueue provides a typed work queue over the delayed store plus
// a polling processor with bounded per-item retries.
//
// The Queue is a narrow primitive: enqueue opaque typed items with an
// availability time, atomically pop the earliest due one. Items are
// JSON-validated on dequeue; an item that no longer matches the queue's type
// is dropped and logged rather than crashing consumers.
//
// The Processor is a cooperative polling loop: it drains due items
// back-to-back, idles for a fixed timeout when the queue is empty, and
// converts handler failures into delayed re-enqueues driven by a retry
// policy. Once an item exhausts its attempt budget it is recorded to an
// optional dead-letter sink and dropped. One processor runs per process;
// horizontal scaling is running more processes against the same queue and
// relying on the store's atomic pop for exclusivity.
//
// # Usage
//
//	queue, err := workqueue.NewQueue[EmailJob](store)
//	if err != nil {
//	    return err
//	}
//
//	proc, err := workqueue.NewProcessor(queue, func(ctx context.Context, msg workqueue.Message[EmailJob]) error {
//	    return send(ctx, msg.Item)
//	}, workqueue.WithIdleTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//
//	_ = proc.Start(ctx)
//	defer proc.Stop()
//
// Start and Stop are idempotent and safe to call from any state; Stop cancels
// an in-flight idle wait and blocks until the loop goroutine exits.
package workqueue
