package terminate

import (
	"reflect"
	"testing"
)

func TestPkexecCommand(t *testing.T) {
	name, args := elevationCommand(1234, false)
	if name != "pkexec" || !reflect.DeepEqual(args, []string{"kill", "-15", "1234"}) {
		t.Fatalf("got %s %v", name, args)
	}
	_, args = elevationCommand(1234, true)
	if args[1] != "-9" {
		t.Fatalf("force used %s", args[1])
	}
}
