// Package plc delivers control command documents to the plant actuation bus.
//
// MQTT is the transport: commands are JSON-encoded and published to a single
// write topic (default "plc/write") that the PLC gateway subscribes to. When
// no broker is configured the server runs compute-only and LogDispatcher
// records what would have been sent.
package plc
