// Package daemon wires the service graph together and runs the HTTP API
// under a single-instance file lock.
package daemon
