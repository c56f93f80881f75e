// Package api exposes the daemon's HTTP surface: the answer gate, clip
// upload and recording, clip serving, and merge orchestration. Handlers
// translate the service error taxonomy into HTTP status codes and speak a
// small JSON envelope.
package api
