// Package channel describes the transport endpoints of the router.
//
// A channel is identified by an ID (type, transport, address, port, protocol
// and sharing mode) and owns exactly one registry, seen here through the
// read-only Lookup interface. On every inbound request the channel extracts
// the target path, resolves it with Lookup and hands the request to the
// matching plugin, or answers "not found".
//
// This package provides the HTTP and HTTPS server channels. Other transports
// (CoAP, MQTT) plug in through the Factory interface.
package channel
