//go:build linux

package proc

import (
	"bufio"
	"reflect"
	"strings"
	"testing"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		raw      string
		ipv6     bool
		wantIP   string
		wantPort int
	}{
		{"0100007F:1F90", false, "127.0.0.1", 8080},
		{"00000000:0016", false, "0.0.0.0", 22},
		{"00000000000000000000000000000000:1F90", true, "::", 8080},
		{"00000000000000000000000001000000:0035", true, "::1", 53},
		{"0000000000000000FFFF00000100007F:1F90", true, "127.0.0.1", 8080},
		{"garbage", false, "", 0},
	}
	for _, tt := range tests {
		ip, port := parseAddr(tt.raw, tt.ipv6)
		if ip != tt.wantIP || port != tt.wantPort {
			t.Errorf("parseAddr(%q) = %s:%d, want %s:%d", tt.raw, ip, port, tt.wantIP, tt.wantPort)
		}
	}
}

const tcpTable = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 1111 1 0000000000000000 100 0 0 10 0
   1: 0100007F:1F90 0100007F:D431 01 00000000:00000000 00:00000000 00000000  1000        0 2222 1 0000000000000000 20 4 30 10 -1
   2: 0100007F:0016 0100007F:D432 06 00000000:00000000 03:00000000 00000000     0        0 0 3 0000000000000000
`

func TestParseSocketTable(t *testing.T) {
	socks := parseSocketTable(bufio.NewScanner(strings.NewReader(tcpTable)), model.TCP, false)
	if len(socks) != 3 {
		t.Fatalf("got %d sockets, want 3", len(socks))
	}

	listen := socks[0].record
	if listen.State != model.StateListen || listen.LocalPort != 8080 || listen.LocalAddress != "0.0.0.0" {
		t.Fatalf("unexpected listen record %+v", listen)
	}
	if listen.RemoteAddress != "" || listen.RemotePort != 0 {
		t.Fatalf("listening socket carries remote %s:%d", listen.RemoteAddress, listen.RemotePort)
	}

	est := socks[1].record
	if est.State != model.StateEstablished || est.RemotePort != 0xD431 || est.RemoteAddress != "127.0.0.1" {
		t.Fatalf("unexpected established record %+v", est)
	}
	if socks[1].inode != "2222" {
		t.Fatalf("inode = %q, want 2222", socks[1].inode)
	}
}

func TestParseSocketTableUDPIsListening(t *testing.T) {
	udp := `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode ref pointer drops
  10: 00000000:0035 00000000:0000 07 00000000:00000000 00:00000000 00000000   101        0 3333 2 0000000000000000 0
`
	socks := parseSocketTable(bufio.NewScanner(strings.NewReader(udp)), model.UDP, false)
	if len(socks) != 1 || socks[0].record.State != model.StateListen {
		t.Fatalf("udp socket not reported as listening: %+v", socks)
	}
}

func TestAttachOwners(t *testing.T) {
	raw := []rawSocket{
		{record: model.SocketRecord{Protocol: model.TCP, LocalPort: 9000}, inode: "1"},
		{record: model.SocketRecord{Protocol: model.TCP, LocalPort: 80}, inode: "2"},
		{record: model.SocketRecord{Protocol: model.TCP, LocalPort: 22}, inode: "0"},
		{record: model.SocketRecord{Protocol: model.TCP, LocalPort: 443}, inode: "3"},
	}
	owners := map[string][]int{
		"1": {300, 20},
		"2": {10},
		"0": {1},
	}

	got := attachOwners(raw, owners)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].LocalPort != 80 || got[1].LocalPort != 9000 {
		t.Fatalf("records not ordered by port: %+v", got)
	}
	if !reflect.DeepEqual(got[1].PIDs, []int{20, 300}) {
		t.Fatalf("pids = %v, want sorted [20 300]", got[1].PIDs)
	}
	if !reflect.DeepEqual(owners["1"], []int{300, 20}) {
		t.Fatalf("owner map was mutated: %v", owners["1"])
	}
}

func TestParseStat(t *testing.T) {
	raw := "1234 (my (odd) proc) S 1 1234 1234 0 -1 4194560 100 0 0 0 250 50 0 0 20 0 1 0 5000 1000000 300 18446744073709551615"
	s, err := parseStat(raw)
	if err != nil {
		t.Fatalf("parseStat: %v", err)
	}
	if s.comm != "my (odd) proc" || s.state != "S" || s.ppid != 1 {
		t.Fatalf("unexpected fields %+v", s)
	}
	if s.utime != 250 || s.stime != 50 || s.startTick != 5000 || s.rssPages != 300 {
		t.Fatalf("unexpected counters %+v", s)
	}

	if _, err := parseStat("1234 no parens"); err == nil {
		t.Fatal("expected error for malformed stat")
	}
}
