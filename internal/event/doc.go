// Package event provides a synchronous publish/subscribe bus for gantry.
//
// The board publishes an event for every observable outcome of a pointer
// gesture or data load: a gesture starting, being rejected or canceled,
// a commit succeeding or failing, and tasks being loaded or excluded at
// ingestion. Presentation layers (the terminal UI, the HTTP API) subscribe
// to surface those outcomes without the board depending on them.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//	id := bus.Subscribe(event.TypeCommitFailed, func(e event.Event) {
//		failed := e.(event.CommitFailedEvent)
//		showError(failed.TaskID, failed.Err)
//	})
//	defer bus.Unsubscribe(id)
//
// # Delivery
//
// Publish calls handlers on the publishing goroutine. Handlers subscribed to
// a specific type run before wildcard handlers registered with SubscribeAll.
// A handler that panics is recovered and logged so the remaining handlers
// still receive the event.
package event
