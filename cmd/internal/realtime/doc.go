// Package realtime fans content events out to websocket subscribers.
//
// The Hub is a process-local broadcast: the social handlers publish
// post/comment events into it and every connected feed client receives
// them. Slow consumers are dropped rather than allowed to stall the
// publisher. Feed connections authenticate through the same session
// verifier as the HTTP routes.
package realtime
