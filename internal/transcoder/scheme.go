package transcoder

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme is a bitrate ceiling in kbps. SchemeOff (0) means unlimited.
type Scheme int

// Canonical ceilings.
const (
	SchemeOff Scheme = 0
	Scheme32  Scheme = 32
	Scheme40  Scheme = 40
	Scheme48  Scheme = 48
	Scheme56  Scheme = 56
	Scheme64  Scheme = 64
	Scheme80  Scheme = 80
	Scheme96  Scheme = 96
	Scheme112 Scheme = 112
	Scheme128 Scheme = 128
	Scheme160 Scheme = 160
	Scheme192 Scheme = 192
	Scheme224 Scheme = 224
	Scheme256 Scheme = 256
	Scheme320 Scheme = 320
)

// Schemes lists every scheme in ascending order, SchemeOff first.
var Schemes = []Scheme{
	SchemeOff, Scheme32, Scheme40, Scheme48, Scheme56, Scheme64, Scheme80, Scheme96,
	Scheme112, Scheme128, Scheme160, Scheme192, Scheme224, Scheme256, Scheme320,
}

// MaxBitRate returns the ceiling in kbps.
func (s Scheme) MaxBitRate() int { return int(s) }

// String returns the stored name, "OFF" or "MAX_<kbps>".
func (s Scheme) String() string {
	if s == SchemeOff {
		return "OFF"
	}
	return "MAX_" + strconv.Itoa(int(s))
}

// Strictest combines two schemes. Any finite ceiling wins over SchemeOff,
// otherwise the lower ceiling wins.
func (s Scheme) Strictest(other Scheme) Scheme {
	switch {
	case other == SchemeOff:
		return s
	case s == SchemeOff:
		return other
	case other < s:
		return other
	default:
		return s
	}
}

// SchemeFromMaxBitRate returns the greatest canonical ceiling not above kbps.
// Values below the lowest ceiling map to SchemeOff.
func SchemeFromMaxBitRate(kbps int) Scheme {
	for i := len(Schemes) - 1; i > 0; i-- {
		if kbps >= int(Schemes[i]) {
			return Schemes[i]
		}
	}
	return SchemeOff
}

// ParseScheme accepts the stored name ("OFF", "MAX_128") or a bare number of
// kbps, which must be a canonical ceiling.
func ParseScheme(s string) (Scheme, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" || v == "OFF" || v == "0" {
		return SchemeOff, nil
	}
	kbps, err := strconv.Atoi(strings.TrimPrefix(v, "MAX_"))
	if err != nil {
		return SchemeOff, fmt.Errorf("invalid transcode scheme %q", s)
	}
	for _, scheme := range Schemes {
		if int(scheme) == kbps {
			return scheme, nil
		}
	}
	return SchemeOff, fmt.Errorf("invalid transcode scheme %q: %d is not a canonical bitrate", s, kbps)
}
