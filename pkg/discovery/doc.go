// Package discovery advertises the router's server channels over mDNS/DNS-SD.
//
// Every running server channel is published as one service instance:
//
//	_onem2m-<protocol>._tcp   HTTP, HTTPS, MQTT, WebSocket channels
//	_onem2m-<protocol>._udp   CoAP, CoAPs channels
//
// The instance name is "iotdm-<protocol>-<port>". TXT records carry the
// registry mode (mode), the protocol (proto) and the comma separated list of
// registered paths (paths), truncated to fit one TXT string.
package discovery
