package injector

import (
	"sync"
	"time"

	"github.com/pion/injector/internal/logging"
	"github.com/pion/injector/pkg/codec"
	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4/pkg/media"
)

var logger = logging.NewLogger("send")

// SampleWriter is the subset of webrtc.TrackLocalStaticSample consumed
// by TrackSink.
type SampleWriter interface {
	WriteSample(s media.Sample) error
}

// TrackSink is a delivery callback that turns each encoded frame into
// a media.Sample and writes it to a track. Sample durations are
// derived from the RTP timestamp deltas the producer stamped on the
// frames.
type TrackSink struct {
	writer    SampleWriter
	clockRate uint32

	mu      sync.Mutex
	lastRTP uint32
	primed  bool
}

var _ codec.EncodedImageCallback = (*TrackSink)(nil)

// NewTrackSink wraps writer, interpreting frame timestamps against
// clockRate (90000 for video).
func NewTrackSink(writer SampleWriter, clockRate uint32) *TrackSink {
	return &TrackSink{
		writer:    writer,
		clockRate: clockRate,
	}
}

// OnEncodedImage implements codec.EncodedImageCallback. The payload is
// handed to WriteSample synchronously, so the encoder's reusable
// buffer is not retained.
func (s *TrackSink) OnEncodedImage(img *codec.EncodedImage, _ *codec.CodecSpecificInfo) error {
	s.mu.Lock()
	// One nominal 30fps frame for the first sample, so the track's
	// RTP clock advances before the second frame; afterwards the
	// producer's timestamp deltas are authoritative. Unsigned
	// subtraction keeps the delta correct across RTP timestamp
	// wraparound.
	delta := s.clockRate / 30
	if s.primed {
		delta = img.RTPTimestamp - s.lastRTP
	}
	s.lastRTP = img.RTPTimestamp
	s.primed = true
	s.mu.Unlock()

	sample := media.Sample{
		Data:     img.Data,
		Duration: tickDuration(delta, s.clockRate),
	}
	if img.CaptureTimeMS > 0 {
		sample.Timestamp = time.UnixMilli(img.CaptureTimeMS)
	}
	return s.writer.WriteSample(sample)
}

// tickDuration converts an RTP tick count to the smallest duration
// whose truncating conversion back to ticks (what the track performs
// per sample) yields at least the same count, so the track's RTP
// clock advances by exactly the producer's delta.
func tickDuration(ticks, clockRate uint32) time.Duration {
	if clockRate == 0 {
		return 0
	}
	rate := time.Duration(clockRate)
	return (time.Duration(ticks)*time.Second + rate - 1) / rate
}

const rtcpInboundMTU = 1500

// RTCPKeyFrameLoop reads compound RTCP packets from reader and raises
// a keyframe request on ctrl for every PLI or FIR, bridging
// network-driven keyframe demand to the out-of-band producer. It
// returns when stop fires (nil) or the reader fails (the read error).
func RTCPKeyFrameLoop(reader interceptor.RTCPReader, ctrl codec.KeyFrameController, stop <-chan struct{}) error {
	buf := make([]byte, rtcpInboundMTU)
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		n, _, err := reader.Read(buf, interceptor.Attributes{})
		if err != nil {
			return err
		}

		pkts, err := rtcp.Unmarshal(buf[:n])
		if err != nil {
			logger.Warnf("failed to unmarshal RTCP packet: %v", err)
			continue
		}

		for _, pkt := range pkts {
			switch pkt.(type) {
			case *rtcp.PictureLossIndication, *rtcp.FullIntraRequest:
				if err := ctrl.ForceKeyFrame(); err != nil {
					logger.Errorf("failed to force keyframe: %v", err)
				}
			}
		}
	}
}
