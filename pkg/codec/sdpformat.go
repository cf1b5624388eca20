package codec

import (
	"sort"
	"strings"

	"github.com/pion/webrtc/v4"
)

// SDPFormat describes one negotiable codec profile: a codec name plus
// its SDP format parameters (the fmtp key/value pairs).
type SDPFormat struct {
	Name       string
	Parameters map[string]string
}

// NewSDPFormat builds a format from a name and parameter map. The map
// is copied.
func NewSDPFormat(name string, parameters map[string]string) SDPFormat {
	params := make(map[string]string, len(parameters))
	for k, v := range parameters {
		params[k] = v
	}
	return SDPFormat{Name: name, Parameters: params}
}

// ProfileLevelID returns the H264 profile-level-id parameter, or ""
// when absent.
func (f SDPFormat) ProfileLevelID() string {
	return f.Parameters["profile-level-id"]
}

// FmtpLine renders the parameters as an SDP fmtp attribute value with
// keys in lexical order, e.g.
// "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f".
func (f SDPFormat) FmtpLine() string {
	keys := make([]string, 0, len(f.Parameters))
	for k := range f.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+f.Parameters[k])
	}
	return strings.Join(pairs, ";")
}

// RTPCodecCapability converts the format to a pion capability suitable
// for media-engine registration and track construction.
func (f SDPFormat) RTPCodecCapability(clockRate uint32) webrtc.RTPCodecCapability {
	return webrtc.RTPCodecCapability{
		MimeType:    "video/" + f.Name,
		ClockRate:   clockRate,
		SDPFmtpLine: f.FmtpLine(),
	}
}
