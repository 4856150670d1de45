package target

import (
	"reflect"
	"testing"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Target
		wantErr bool
	}{
		{"1234", model.Target{Type: model.TargetPID, Value: 1234}, false},
		{" 42 ", model.Target{Type: model.TargetPID, Value: 42}, false},
		{":8080", model.Target{Type: model.TargetPort, Value: 8080}, false},
		{"port:443", model.Target{Type: model.TargetPort, Value: 443}, false},
		{"PORT:53", model.Target{Type: model.TargetPort, Value: 53}, false},
		{"nginx", model.Target{Type: model.TargetName, Name: "nginx"}, false},
		{":0", model.Target{}, true},
		{":70000", model.Target{}, true},
		{":http", model.Target{}, true},
		{"-5", model.Target{}, true},
		{"", model.Target{}, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestResolveName(t *testing.T) {
	nodes := []model.ProcessNode{
		{PID: 10, Name: "nginx", Cmdline: "nginx: master process"},
		{PID: 10, Name: "nginx"},
		{PID: 11, Name: "nginx-exporter"},
		{PID: 12, Name: "node", Cmdline: "node server.js --name nginx"},
		{PID: 13, Name: "grep", Cmdline: "grep nginx"},
		{PID: 14, Name: "NGINX"},
	}

	tests := []struct {
		name    string
		exact   bool
		exclude []int
		want    []int
	}{
		{"nginx", false, nil, []int{10, 11, 12, 14}},
		{"nginx", true, nil, []int{10, 12, 14}},
		{"nginx", false, []int{14}, []int{10, 11, 12}},
		{"server.js", true, nil, []int{12}},
		{"12", false, nil, nil},
		{"postgres", false, nil, nil},
	}

	for _, tt := range tests {
		got := ResolveName(nodes, tt.name, tt.exact, tt.exclude...)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ResolveName(%q, exact=%v) = %v, want %v", tt.name, tt.exact, got, tt.want)
		}
	}
}
