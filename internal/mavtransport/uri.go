package mavtransport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v3"
)

// ParseEndpoint turns a MAVLink connection string, in the standard MAVLink
// URI convention (e.g. "udpin:0.0.0.0:14550", "udpbcast:0.0.0.0:14550",
// "tcpout:drone.local:5760", "serial:/dev/ttyUSB0:57600", "file:/tmp/log"),
// into a gomavlib.EndpointConf. This is the listen/connect grammar
// documented in spec.md §6's --mavlink-listen flag.
func ParseEndpoint(uri string) (gomavlib.EndpointConf, error) {
	switch {
	case strings.HasPrefix(uri, "udpin:"):
		return gomavlib.EndpointUDPServer{Address: strings.TrimPrefix(uri, "udpin:")}, nil
	case strings.HasPrefix(uri, "udpout:"):
		return gomavlib.EndpointUDPClient{Address: strings.TrimPrefix(uri, "udpout:")}, nil
	case strings.HasPrefix(uri, "udpbcast:"):
		return gomavlib.EndpointUDPBroadcast{
			BroadcastAddress: strings.TrimPrefix(uri, "udpbcast:"),
			LocalAddress:     "",
		}, nil
	case strings.HasPrefix(uri, "tcpin:"):
		return gomavlib.EndpointTCPServer{Address: strings.TrimPrefix(uri, "tcpin:")}, nil
	case strings.HasPrefix(uri, "tcpout:"):
		return gomavlib.EndpointTCPClient{Address: strings.TrimPrefix(uri, "tcpout:")}, nil
	case strings.HasPrefix(uri, "serial:"):
		rest := strings.TrimPrefix(uri, "serial:")
		sep := strings.LastIndex(rest, ":")
		if sep < 0 {
			return nil, fmt.Errorf("mavtransport: malformed serial endpoint %q: want serial:device:baud", uri)
		}
		device, baudStr := rest[:sep], rest[sep+1:]
		baud, err := strconv.Atoi(baudStr)
		if err != nil {
			return nil, fmt.Errorf("mavtransport: malformed serial baud in %q: %w", uri, err)
		}
		return gomavlib.EndpointSerial{Device: device, Baud: baud}, nil
	case strings.HasPrefix(uri, "file:"):
		return gomavlib.EndpointFile{Path: strings.TrimPrefix(uri, "file:")}, nil
	default:
		return nil, fmt.Errorf("mavtransport: unrecognized endpoint %q: want one of udpin:, udpout:, udpbcast:, tcpin:, tcpout:, serial:device:baud, file:path", uri)
	}
}
