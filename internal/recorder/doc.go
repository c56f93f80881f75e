// Package recorder manages capture sessions against local audio and video
// devices. A session is opened with Start, which reserves the device, and
// closed with Stop, which always releases the device and returns the raw
// capture bytes. Captures are buffered in memory up to a configured cap.
package recorder
