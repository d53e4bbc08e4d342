package client

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"golang.org/x/term"
)

// userAgentLimit is counted in UTF-16 code units.
const userAgentLimit = 100

// DeviceInfo carries the signals mixed into the login device id.
type DeviceInfo struct {
	UserAgent           string
	Language            string
	ScreenWidth         int
	ScreenHeight        int
	TimezoneOffset      int // minutes behind UTC, so UTC+8 is -480
	HardwareConcurrency int
	DeviceMemory        float64
	PixelRatio          float64
}

func (d DeviceInfo) parts() []string {
	ratio := d.PixelRatio
	if ratio == 0 {
		ratio = 1
	}
	return []string{
		d.Language,
		strconv.Itoa(d.ScreenWidth) + "x" + strconv.Itoa(d.ScreenHeight),
		strconv.Itoa(d.TimezoneOffset),
		strconv.Itoa(d.HardwareConcurrency),
		strconv.FormatFloat(d.DeviceMemory, 'f', -1, 64),
		strconv.FormatFloat(ratio, 'f', -1, 64),
	}
}

// Fingerprint hashes the device signals into a short base-36 id. The same
// device always yields the same id; it identifies nothing on its own.
func Fingerprint(d DeviceInfo) string {
	units := utf16.Encode([]rune(d.UserAgent))
	if len(units) > userAgentLimit {
		units = units[:userAgentLimit]
	}
	units = append(units, utf16.Encode([]rune("|"+strings.Join(d.parts(), "|")))...)

	var h int32
	for _, c := range units {
		h = h*31 + int32(c)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return strconv.FormatInt(abs, 36)
}

// LocalDevice describes the machine running the CLI. The terminal size stands
// in for the screen.
func LocalDevice(userAgent string) DeviceInfo {
	_, offset := time.Now().Zone()
	d := DeviceInfo{
		UserAgent:           userAgent + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")",
		Language:            localeFromEnv(),
		TimezoneOffset:      -offset / 60,
		HardwareConcurrency: runtime.NumCPU(),
		PixelRatio:          1,
	}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		d.ScreenWidth, d.ScreenHeight = w, h
	}
	return d
}

// localeFromEnv turns "mn_MN.UTF-8" into "mn-MN".
func localeFromEnv() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		raw := os.Getenv(key)
		if raw == "" || raw == "C" || raw == "POSIX" {
			continue
		}
		raw, _, _ = strings.Cut(raw, ".")
		return strings.ReplaceAll(raw, "_", "-")
	}
	return "en-US"
}
