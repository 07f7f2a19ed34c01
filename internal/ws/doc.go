// Package ws streams module lifecycle events over WebSocket.
//
// Each connection subscribes to the registry's wildcard event kind and
// forwards every event as a JSON frame. A client that cannot keep up
// with the event rate is disconnected rather than allowed to block the
// registry.
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, logger, metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
