/*
Package events provides an in-memory event broker for observing controller
activity.

The events package implements a lightweight event bus. Every store owns one
Broker: the store publishes writes committed and heads received on it, and
the controller publishes peers connected on it and consumes the write
events to republish heads on pubsub. The database created/opened/closed,
heads-exchange-failed and migration-applied event types are defined for
subscribers, but nothing in driftdb publishes them.

# Design

	┌─────────────┐   Publish(event)   ┌────────────┐
	│ controller  ├────────────────────▶   Broker   │
	└─────────────┘                    └─────┬──────┘
	                                          │ broadcast (non-blocking)
	                       ┌──────────────────┼──────────────────┐
	                       ▼                  ▼                  ▼
	                 Subscriber          Subscriber          Subscriber
	                 (buffer 50)          (buffer 50)          (buffer 50)

Publish hands the event to an internal buffered channel (capacity 100) that a
background goroutine drains and fans out to every subscriber's own buffered
channel. A slow or stalled subscriber never blocks the publisher: broadcast
uses a non-blocking send and drops the event for that subscriber if its
buffer is full.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for ev := range sub {
			log.Info(string(ev.Type))
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventDatabaseOpened,
		Message: addr.String(),
	})
*/
package events
