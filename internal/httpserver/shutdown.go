package httpserver

import "time"

// ShutdownTimeout bounds how long Run waits for in-flight requests once its
// context is cancelled.
var ShutdownTimeout = 10 * time.Second
