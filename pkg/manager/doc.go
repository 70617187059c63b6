// Package manager owns the router's channels and their registries.
//
// A Manager is an explicit context object: create one with New, register
// plugins on it, and Close it on shutdown. Registering a plugin on a
// protocol, address and port either joins the existing channel for that
// endpoint or creates a new one with a registry of the requested sharing
// mode. Channels left without plugins are closed.
//
// Channels are kept per (type, transport) keyed by "ip:port", so an HTTP
// and an MQTT channel cannot share a TCP port, and a channel on 0.0.0.0
// excludes channels on specific addresses with the same port.
package manager
