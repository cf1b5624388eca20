package injector

import (
	"io"
	"sync"

	"github.com/pion/injector/pkg/codec"
	"github.com/pion/rtp"
	"github.com/pkg/errors"
)

const defaultMTU = 1200

// RTPSink is a delivery callback that packetizes each encoded frame
// and writes the marshalled RTP packets to w (a UDP connection,
// typically). The producer's RTP timestamps drive the packetizer's
// sample clock.
type RTPSink struct {
	mu         sync.Mutex
	packetizer rtp.Packetizer
	w          io.Writer
	clockRate  uint32
	lastRTP    uint32
	primed     bool
}

var _ codec.EncodedImageCallback = (*RTPSink)(nil)

// NewRTPSink builds a sink writing packets of at most mtu bytes. An
// mtu of zero selects the default of 1200. The payloader must match
// the injected codec, e.g. codecs.H264Payloader for H264.
func NewRTPSink(w io.Writer, payloadType uint8, ssrc uint32, clockRate uint32, payloader rtp.Payloader, mtu uint16) *RTPSink {
	if mtu == 0 {
		mtu = defaultMTU
	}
	return &RTPSink{
		packetizer: rtp.NewPacketizer(
			mtu,
			payloadType,
			ssrc,
			payloader,
			rtp.NewRandomSequencer(),
			clockRate,
		),
		w:         w,
		clockRate: clockRate,
	}
}

// OnEncodedImage implements codec.EncodedImageCallback.
func (s *RTPSink) OnEncodedImage(img *codec.EncodedImage, _ *codec.CodecSpecificInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One nominal 30fps frame for the first sample; afterwards the
	// producer's timestamp deltas are authoritative.
	samples := s.clockRate / 30
	if s.primed {
		samples = img.RTPTimestamp - s.lastRTP
	}
	s.lastRTP = img.RTPTimestamp
	s.primed = true

	for _, pkt := range s.packetizer.Packetize(img.Data, samples) {
		raw, err := pkt.Marshal()
		if err != nil {
			return errors.Wrap(err, "injector: failed to marshal RTP packet")
		}
		if _, err := s.w.Write(raw); err != nil {
			return errors.Wrap(err, "injector: failed to write RTP packet")
		}
	}
	return nil
}
