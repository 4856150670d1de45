//go:build darwin

package proc

import (
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

func listSockets() ([]model.SocketRecord, error) {
	out, err := exec.Command("lsof", "-i", "-P", "-n").Output()
	if err != nil {
		return nil, fmt.Errorf("lsof: %w", err)
	}
	return parseLsof(string(out)), nil
}

// parseLsof folds lsof rows into records; one socket shared by several pids
// shows up as several rows and becomes one record with several owners.
func parseLsof(out string) []model.SocketRecord {
	type key struct {
		proto  model.Protocol
		local  string
		remote string
		state  model.SocketState
	}
	index := make(map[key]int)
	var records []model.SocketRecord

	lines := strings.Split(out, "\n")
	startIdx := 0
	if len(lines) > 0 && strings.HasPrefix(lines[0], "COMMAND") {
		startIdx = 1
	}

	for _, line := range lines[startIdx:] {
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		var proto model.Protocol
		switch {
		case fields[7] == "TCP" || strings.Contains(line, "TCP"):
			proto = model.TCP
		case fields[7] == "UDP" || strings.Contains(line, "UDP"):
			proto = model.UDP
		default:
			continue
		}

		local, remote, _ := strings.Cut(fields[8], "->")
		addr, port := parseNetstatAddr(local)
		if port <= 0 || port > 65535 {
			continue
		}

		state := model.StateListen
		if proto == model.TCP {
			state = model.StateUnknown
			if len(fields) > 9 {
				state = lsofState(strings.Trim(fields[9], "()"))
			}
		}

		k := key{proto, local, remote, state}
		if i, ok := index[k]; ok {
			records[i].PIDs = append(records[i].PIDs, pid)
			continue
		}

		rec := model.SocketRecord{
			Protocol:     proto,
			LocalAddress: addr,
			LocalPort:    uint16(port),
			State:        state,
			PIDs:         []int{pid},
		}
		if remote != "" {
			raddr, rport := parseNetstatAddr(remote)
			if rport > 0 && rport <= 65535 {
				rec.RemoteAddress = raddr
				rec.RemotePort = uint16(rport)
			}
		}
		index[k] = len(records)
		records = append(records, rec)
	}

	for i := range records {
		sort.Ints(records[i].PIDs)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LocalPort < records[j].LocalPort
	})
	return records
}

func lsofState(s string) model.SocketState {
	switch s {
	case "LISTEN":
		return model.StateListen
	case "ESTABLISHED":
		return model.StateEstablished
	case "SYN_SENT":
		return model.StateSynSent
	case "SYN_RECEIVED", "SYN_RCVD":
		return model.StateSynReceived
	case "FIN_WAIT_1":
		return model.StateFinWait1
	case "FIN_WAIT_2":
		return model.StateFinWait2
	case "CLOSE_WAIT":
		return model.StateCloseWait
	case "CLOSING":
		return model.StateClosing
	case "LAST_ACK":
		return model.StateLastAck
	case "TIME_WAIT":
		return model.StateTimeWait
	case "CLOSED":
		return model.StateClosed
	}
	return model.StateUnknown
}

// parseNetstatAddr parses addresses like "*:8080", "127.0.0.1:8080", "[::1]:8080"
func parseNetstatAddr(addr string) (string, int) {
	if strings.HasPrefix(addr, "[") {
		bracketEnd := strings.LastIndex(addr, "]")
		if bracketEnd == -1 {
			return "", 0
		}
		ip := addr[1:bracketEnd]
		rest := addr[bracketEnd+1:]
		if len(rest) > 1 && (rest[0] == ':' || rest[0] == '.') {
			if port, err := strconv.Atoi(rest[1:]); err == nil {
				if ip == "" {
					ip = "::"
				}
				return ip, port
			}
		}
		return "", 0
	}

	if strings.HasPrefix(addr, "*") {
		if len(addr) > 2 && (addr[1] == ':' || addr[1] == '.') {
			if port, err := strconv.Atoi(addr[2:]); err == nil {
				return "0.0.0.0", port
			}
		}
		return "", 0
	}

	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		if port, err := strconv.Atoi(addr[idx+1:]); err == nil {
			return addr[:idx], port
		}
	}

	// macOS netstat uses dot-separated: "127.0.0.1.8080"
	if idx := strings.LastIndex(addr, "."); idx != -1 {
		if port, err := strconv.Atoi(addr[idx+1:]); err == nil {
			return addr[:idx], port
		}
	}

	return "", 0
}
