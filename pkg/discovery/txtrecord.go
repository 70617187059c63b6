package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeServiceTXT creates the TXT records of a service. The path list is
// sorted and cut at the last path fitting into one TXT string.
func EncodeServiceTXT(s *Service) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyMode:     s.Mode.String(),
		TXTKeyProtocol: s.Protocol,
	}
	if len(s.Paths) > 0 {
		txt[TXTKeyPaths] = joinPaths(s.Paths, MaxTXTStringLen-len(TXTKeyPaths)-1)
	}
	return txt
}

// DecodeServiceTXT parses TXT records into the mode, protocol and paths of
// a service.
func DecodeServiceTXT(txt TXTRecordMap) (*Service, error) {
	proto, ok := txt[TXTKeyProtocol]
	if !ok || proto == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidService, TXTKeyProtocol)
	}
	s := &Service{Protocol: proto}

	if m, ok := txt[TXTKeyMode]; ok {
		mode, err := channel.ParseMode(m)
		if err != nil {
			return nil, err
		}
		s.Mode = mode
	}
	if transport, ok := channel.TransportFor(proto); ok {
		s.Transport = transport
	}
	if paths := txt[TXTKeyPaths]; paths != "" {
		s.Paths = strings.Split(paths, ",")
	}
	return s, nil
}

// TXTRecordsToStrings converts a TXT record map to "key=value" strings
// sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// StringsToTXTRecords parses "key=value" strings. Strings without "=" are
// kept as keys with an empty value.
func StringsToTXTRecords(records []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		txt[k] = v
	}
	return txt
}

func joinPaths(paths []string, limit int) string {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var b strings.Builder
	for _, p := range sorted {
		extra := len(p)
		if b.Len() > 0 {
			extra++
		}
		if b.Len()+extra > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p)
	}
	return b.String()
}
