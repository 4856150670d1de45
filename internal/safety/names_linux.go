//go:build linux

package safety

var platformNames = []string{
	"init",
	"systemd",
	"kthreadd",
	"ksoftirqd",
	"kworker",
	"rcu_sched",
	"migration",
	"watchdog",
	"cpuhp",
	"netns",
	"dbus-daemon",
	"NetworkManager",
	"systemd-journald",
	"systemd-logind",
	"systemd-udevd",
	"Xorg",
	"Xwayland",
	"gnome-shell",
	"gdm",
	// self
	"portsurgeon",
	"portsurgeon-helper",
}
