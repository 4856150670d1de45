package model

type Protocol string

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// SocketState is a TCP connection state. UDP sockets are always reported as
// StateListen since they have no connection lifecycle.
type SocketState string

const (
	StateListen      SocketState = "LISTEN"
	StateEstablished SocketState = "ESTABLISHED"
	StateSynSent     SocketState = "SYN_SENT"
	StateSynReceived SocketState = "SYN_RECEIVED"
	StateFinWait1    SocketState = "FIN_WAIT_1"
	StateFinWait2    SocketState = "FIN_WAIT_2"
	StateCloseWait   SocketState = "CLOSE_WAIT"
	StateClosing     SocketState = "CLOSING"
	StateLastAck     SocketState = "LAST_ACK"
	StateTimeWait    SocketState = "TIME_WAIT"
	StateClosed      SocketState = "CLOSED"
	StateUnknown     SocketState = "UNKNOWN"
)

// SocketRecord is one row of the OS connection table.
type SocketRecord struct {
	Protocol      Protocol    `json:"protocol"`
	LocalAddress  string      `json:"localAddress"`
	LocalPort     uint16      `json:"localPort"`
	RemoteAddress string      `json:"remoteAddress,omitempty"`
	RemotePort    uint16      `json:"remotePort,omitempty"`
	State         SocketState `json:"state"`
	PIDs          []int       `json:"pids"`
}

// PortEntry is a socket as attached to a single process node.
type PortEntry struct {
	Protocol      Protocol    `json:"protocol"`
	LocalAddress  string      `json:"localAddress"`
	LocalPort     uint16      `json:"localPort"`
	RemoteAddress string      `json:"remoteAddress,omitempty"`
	RemotePort    uint16      `json:"remotePort,omitempty"`
	State         SocketState `json:"state"`
}

func (r SocketRecord) Entry() PortEntry {
	return PortEntry{
		Protocol:      r.Protocol,
		LocalAddress:  r.LocalAddress,
		LocalPort:     r.LocalPort,
		RemoteAddress: r.RemoteAddress,
		RemotePort:    r.RemotePort,
		State:         r.State,
	}
}

// NormalizedAddress collapses the wildcard and loopback forms of both
// families into a single "any" bucket. Every other address is returned as is.
func NormalizedAddress(addr string) string {
	switch addr {
	case "0.0.0.0", "::", "127.0.0.1", "::1":
		return "any"
	}
	return addr
}
