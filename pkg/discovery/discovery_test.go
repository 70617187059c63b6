package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceFor(t *testing.T) {
	id := channel.ID{
		Type:      channel.TypeServer,
		Transport: channel.TransportUDP,
		IP:        channel.AllInterfaces,
		Port:      5683,
		Protocol:  channel.ProtocolCoAP,
		Mode:      channel.ModeSharedPrefixMatch,
	}
	svc := ServiceFor(id, []string{"/home"})

	assert.Equal(t, "coap:5683", svc.Key())
	assert.Equal(t, "iotdm-coap-5683", svc.InstanceName())
	assert.Equal(t, "_onem2m-coap._udp", svc.ServiceType())
	assert.NoError(t, svc.Validate())

	svc.Instance = "lab-router"
	assert.Equal(t, "lab-router", svc.InstanceName())
}

func TestServiceType(t *testing.T) {
	assert.Equal(t, "_onem2m-http._tcp", ServiceType(channel.ProtocolHTTP, channel.TransportTCP))
	assert.Equal(t, "_onem2m-coaps._udp", ServiceType(channel.ProtocolCoAPS, channel.TransportUDP))
}

func TestServiceValidate(t *testing.T) {
	tests := []struct {
		name string
		svc  Service
	}{
		{"missing protocol", Service{Port: 80}},
		{"zero port", Service{Protocol: "http"}},
		{"port too large", Service{Protocol: "http", Port: 70000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.svc.Validate(); !errors.Is(err, ErrInvalidService) {
				t.Errorf("Validate() = %v, want ErrInvalidService", err)
			}
		})
	}
}

func TestEncodeDecodeServiceTXT(t *testing.T) {
	svc := &Service{
		Protocol: channel.ProtocolHTTP,
		Port:     8282,
		Mode:     channel.ModeSharedExactMatch,
		Paths:    []string{"/b", "/a"},
	}

	txt := EncodeServiceTXT(svc)
	assert.Equal(t, "SharedExactMatch", txt[TXTKeyMode])
	assert.Equal(t, "http", txt[TXTKeyProtocol])
	assert.Equal(t, "/a,/b", txt[TXTKeyPaths])

	strs := TXTRecordsToStrings(txt)
	assert.Equal(t, []string{"mode=SharedExactMatch", "paths=/a,/b", "proto=http"}, strs)

	decoded, err := DecodeServiceTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, channel.ModeSharedExactMatch, decoded.Mode)
	assert.Equal(t, channel.TransportTCP, decoded.Transport)
	assert.Equal(t, []string{"/a", "/b"}, decoded.Paths)
}

func TestDecodeServiceTXTErrors(t *testing.T) {
	_, err := DecodeServiceTXT(TXTRecordMap{TXTKeyMode: "Exclusive"})
	assert.ErrorIs(t, err, ErrInvalidService)

	_, err = DecodeServiceTXT(TXTRecordMap{TXTKeyProtocol: "http", TXTKeyMode: "sideways"})
	assert.ErrorIs(t, err, channel.ErrUnknownMode)
}

func TestEncodeServiceTXTTruncatesPaths(t *testing.T) {
	var paths []string
	for i := 0; i < 100; i++ {
		paths = append(paths, "/devices/light"+strings.Repeat("x", 5)+string(rune('a'+i%26)))
	}
	txt := EncodeServiceTXT(&Service{Protocol: "http", Port: 80, Paths: paths})

	got := TXTKeyPaths + "=" + txt[TXTKeyPaths]
	assert.LessOrEqual(t, len(got), MaxTXTStringLen)
	assert.False(t, strings.HasSuffix(txt[TXTKeyPaths], ","))
	assert.NotEmpty(t, txt[TXTKeyPaths])
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "b=x=y"})
	assert.Equal(t, "1", txt["a"])
	assert.Equal(t, "", txt["flag"])
	assert.Equal(t, "x=y", txt["b"])
}

func TestMDNSAdvertiserUnknownService(t *testing.T) {
	a := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	defer a.StopAll()

	assert.ErrorIs(t, a.Withdraw("http:8282"), ErrNotFound)
	assert.ErrorIs(t, a.Update(&Service{Protocol: "http", Port: 8282}), ErrNotFound)
	assert.ErrorIs(t, a.Advertise(context.Background(), &Service{Protocol: "http"}), ErrInvalidService)
}

func TestNoopAdvertiser(t *testing.T) {
	var a Advertiser = NoopAdvertiser{}
	assert.NoError(t, a.Advertise(context.Background(), &Service{}))
	assert.NoError(t, a.Update(&Service{}))
	assert.NoError(t, a.Withdraw("x"))
	a.StopAll()
}
