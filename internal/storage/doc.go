// Package storage is the client for the durable storage gateway: upload
// slots, artifact transfer, finalization, and the paginated catalog.
//
// Publisher adapts the gateway to the composition pipeline's output stage.
package storage
