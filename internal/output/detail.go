package output

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

const portLimit = 10

// RenderNode prints one process with its sockets as a tree.
func RenderNode(w io.Writer, n model.ProcessNode, colorEnabled bool) {
	p := palette{on: colorEnabled}

	title := p.green(n.Name)
	if n.Protected {
		title = p.red(n.Name) + " " + p.red("[protected]")
	}
	fmt.Fprintf(w, "%s (%s)\n", title, p.dim(fmt.Sprintf("pid %d", n.PID)))

	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "  %-10s %s\n", k+":", v)
		}
	}
	field("User", n.User)
	field("Exe", n.ExePath)
	field("Command", n.Cmdline)
	if n.MemoryBytes > 0 {
		field("Memory", FormatBytes(n.MemoryBytes))
	}
	if n.CPUPercent > 0 {
		field("CPU", fmt.Sprintf("%.1f%%", n.CPUPercent))
	}
	if n.StartedAt != nil {
		field("Started", n.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if n.Container != nil {
		field("Container", fmt.Sprintf("%s (%s, %s)", p.cyan(n.Container.Name), n.Container.ShortID(), n.Container.Image))
	} else if n.ContainerProxy {
		field("Container", p.dim("proxy, container not resolved"))
	}
	if n.Runtime != "" {
		field("Runtime", fmt.Sprintf("inside %s container", n.Runtime))
	}

	count := len(n.Ports)
	for i, e := range n.Ports {
		if i >= portLimit {
			fmt.Fprintf(w, "  %s... and %d more\n", p.magenta("└─ "), count-portLimit)
			break
		}
		connector := "├─ "
		if i == count-1 || (i == portLimit-1 && count <= portLimit) {
			connector = "└─ "
		}
		fmt.Fprintf(w, "  %s%s\n", p.magenta(connector), formatEntry(p, e))
	}
}

func formatEntry(p palette, e model.PortEntry) string {
	s := fmt.Sprintf("%s %s", e.Protocol, hostPort(e.LocalAddress, e.LocalPort))
	if e.RemoteAddress != "" {
		s += " -> " + hostPort(e.RemoteAddress, e.RemotePort)
	}
	state := string(e.State)
	if e.State == model.StateListen {
		state = p.green(state)
	} else {
		state = p.dim(state)
	}
	return s + " " + state
}

func hostPort(addr string, port uint16) string {
	return net.JoinHostPort(addr, strconv.Itoa(int(port)))
}

// RenderOutcome prints the result of a kill or container action. A refusal
// or failure keeps its message so the operator sees why nothing happened.
func RenderOutcome(w io.Writer, out model.TerminationOutcome, colorEnabled bool) {
	p := palette{on: colorEnabled}
	if out.Success {
		fmt.Fprintf(w, "%s %s\n", p.green("✓"), out.Message)
		return
	}
	fmt.Fprintf(w, "%s %s\n", p.red("✗"), out.Message)
	// an elevated attempt already failed; no further hint
	if out.RequiredElevation && !strings.HasPrefix(out.Message, "Elevated") {
		fmt.Fprintf(w, "  %s\n", p.yellow("re-run with --elevate to retry with elevated privileges"))
	}
}
