// Package messaging publishes domain events to a message broker.
//
// Callers depend on Publisher; the broker (Kafka, NATS, NSQ, Google Pub/Sub)
// is chosen at startup by driver name. The none driver discards messages so
// event publishing can be switched off without touching use cases.
package messaging
