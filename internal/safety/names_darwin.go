//go:build darwin

package safety

var platformNames = []string{
	"kernel_task",
	"launchd",
	"WindowServer",
	"loginwindow",
	"opendirectoryd",
	"diskarbitrationd",
	"configd",
	"securityd",
	"coreauthd",
	"cfprefsd",
	"powerd",
	"logd",
	"UserEventAgent",
	"mds",
	"mds_stores",
	"notifyd",
	"distnoted",
	// self
	"portsurgeon",
	"portsurgeon-helper",
}
