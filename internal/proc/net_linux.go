//go:build linux

package proc

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

type rawSocket struct {
	record model.SocketRecord
	inode  string
}

// mapTCPState maps Linux kernel TCP states (include/net/tcp_states.h).
func mapTCPState(state int) model.SocketState {
	switch state {
	case 1:
		return model.StateEstablished
	case 2:
		return model.StateSynSent
	case 3:
		return model.StateSynReceived
	case 4:
		return model.StateFinWait1
	case 5:
		return model.StateFinWait2
	case 6:
		return model.StateTimeWait
	case 7:
		return model.StateClosed
	case 8:
		return model.StateCloseWait
	case 9:
		return model.StateLastAck
	case 10:
		return model.StateListen
	case 11:
		return model.StateClosing
	default:
		return model.StateUnknown
	}
}

func readSocketTable(path string, proto model.Protocol, ipv6 bool) ([]rawSocket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseSocketTable(bufio.NewScanner(f), proto, ipv6), nil
}

func parseSocketTable(scanner *bufio.Scanner, proto model.Protocol, ipv6 bool) []rawSocket {
	var out []rawSocket
	scanner.Scan() // skip header

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}

		localIP, localPort := parseAddr(fields[1], ipv6)
		remoteIP, remotePort := parseAddr(fields[2], ipv6)
		stateVal, _ := strconv.ParseInt(fields[3], 16, 64)
		inode := fields[9]

		rec := model.SocketRecord{
			Protocol:     proto,
			LocalAddress: localIP,
			LocalPort:    uint16(localPort),
			State:        mapTCPState(int(stateVal)),
		}
		// UDP has no connection lifecycle
		if proto == model.UDP {
			rec.State = model.StateListen
		}
		if remotePort != 0 {
			rec.RemoteAddress = remoteIP
			rec.RemotePort = uint16(remotePort)
		}
		out = append(out, rawSocket{record: rec, inode: inode})
	}
	return out
}

func parseAddr(raw string, ipv6 bool) (string, int) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return "", 0
	}
	port, _ := strconv.ParseInt(parts[1], 16, 32)

	b, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", int(port)
	}

	if ipv6 {
		if len(b) != 16 {
			return "::", int(port)
		}
		// /proc/net/tcp6 stores IPv6 as 4 little-endian 32-bit groups
		ip := make(net.IP, 16)
		for i := 0; i < 4; i++ {
			ip[i*4+0] = b[i*4+3]
			ip[i*4+1] = b[i*4+2]
			ip[i*4+2] = b[i*4+1]
			ip[i*4+3] = b[i*4+0]
		}
		return ip.String(), int(port)
	}

	if len(b) < 4 {
		return "", int(port)
	}
	ip := strconv.Itoa(int(b[3])) + "." +
		strconv.Itoa(int(b[2])) + "." +
		strconv.Itoa(int(b[1])) + "." +
		strconv.Itoa(int(b[0]))

	return ip, int(port)
}

// socketOwners maps socket inodes to the pids holding a descriptor on them.
func socketOwners() (map[string][]int, error) {
	procs, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	owners := make(map[string][]int)
	for _, p := range procs {
		if !p.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(p.Name())
		if err != nil {
			continue
		}

		fdPath := fmt.Sprintf("/proc/%d/fd", pid)
		fds, err := os.ReadDir(fdPath)
		if err != nil {
			continue
		}

		seen := make(map[string]bool)
		for _, fd := range fds {
			link, err := os.Readlink(fdPath + "/" + fd.Name())
			if err != nil || !strings.HasPrefix(link, "socket:[") {
				continue
			}
			inode := strings.TrimSuffix(strings.TrimPrefix(link, "socket:["), "]")
			if !seen[inode] {
				seen[inode] = true
				owners[inode] = append(owners[inode], pid)
			}
		}
	}
	return owners, nil
}

func listSockets() ([]model.SocketRecord, error) {
	tables := []struct {
		path  string
		proto model.Protocol
		ipv6  bool
	}{
		{"/proc/net/tcp", model.TCP, false},
		{"/proc/net/tcp6", model.TCP, true},
		{"/proc/net/udp", model.UDP, false},
		{"/proc/net/udp6", model.UDP, true},
	}

	var raw []rawSocket
	readable := 0
	for _, t := range tables {
		socks, err := readSocketTable(t.path, t.proto, t.ipv6)
		if err != nil {
			// ipv6 may be disabled; only fail if nothing is readable
			continue
		}
		readable++
		raw = append(raw, socks...)
	}
	if readable == 0 {
		return nil, fmt.Errorf("no socket table readable under /proc/net")
	}

	owners, err := socketOwners()
	if err != nil {
		return nil, err
	}
	return attachOwners(raw, owners), nil
}

// attachOwners drops sockets nobody holds (TIME_WAIT leftovers, other
// namespaces) and orders the rest by local port.
func attachOwners(raw []rawSocket, owners map[string][]int) []model.SocketRecord {
	records := make([]model.SocketRecord, 0, len(raw))
	for _, s := range raw {
		pids := owners[s.inode]
		if s.inode == "0" || len(pids) == 0 {
			continue
		}
		rec := s.record
		rec.PIDs = append([]int(nil), pids...)
		sort.Ints(rec.PIDs)
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LocalPort < records[j].LocalPort
	})
	return records
}
