package output

var (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorDim     = "\033[2m"
)

// palette hands out escape codes, or empty strings when color is off.
type palette struct {
	on bool
}

func (p palette) wrap(code, s string) string {
	if !p.on || s == "" {
		return s
	}
	return code + s + colorReset
}

func (p palette) red(s string) string     { return p.wrap(colorRed, s) }
func (p palette) green(s string) string   { return p.wrap(colorGreen, s) }
func (p palette) yellow(s string) string  { return p.wrap(colorYellow, s) }
func (p palette) blue(s string) string    { return p.wrap(colorBlue, s) }
func (p palette) magenta(s string) string { return p.wrap(colorMagenta, s) }
func (p palette) cyan(s string) string    { return p.wrap(colorCyan, s) }
func (p palette) dim(s string) string     { return p.wrap(colorDim, s) }
