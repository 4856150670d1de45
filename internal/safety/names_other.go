//go:build !linux && !darwin

package safety

var platformNames = []string{
	"csrss.exe",
	"lsass.exe",
	"wininit.exe",
	"smss.exe",
	"services.exe",
	"winlogon.exe",
	"dwm.exe",
	"system",
	"registry",
	"memory compression",
	// self
	"portsurgeon.exe",
	"portsurgeon-helper.exe",
}
