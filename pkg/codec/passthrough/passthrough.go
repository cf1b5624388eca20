// Package passthrough implements the encoder lifecycle contract for
// video that is compressed out of band. The encoder performs no
// compression itself: an external producer pushes already-encoded
// frames through InjectEncodedFrame and they are handed straight to
// the pipeline's delivery callback, while the pipeline keeps driving
// the usual lifecycle (InitEncode, Encode, SetRates, Release) as if a
// real encoder were attached.
package passthrough

import (
	"image"
	"sync"
	"time"

	"github.com/pion/injector/internal/logging"
	"github.com/pion/injector/pkg/codec"
	"go.uber.org/atomic"
)

var logger = logging.NewLogger("codec/passthrough")

const defaultFramerate = 30.0

// Encoder accepts pre-encoded frames from an arbitrary caller thread
// and forwards them to the delivery callback registered by the
// pipeline. Contract methods and injection entry points may run
// concurrently: buffer, callback and rate state are guarded by one
// mutex, the initialized and keyframe-requested flags are atomics.
type Encoder struct {
	id     string
	format codec.SDPFormat

	mu               sync.Mutex
	callback         codec.EncodedImageCallback
	width            uint32
	height           uint32
	targetBitrateBps uint32
	framerate        float64
	image            codec.EncodedImage

	initialized       atomic.Bool
	keyframeRequested atomic.Bool
	closed            atomic.Bool

	tracker *codec.BitrateTracker

	// onClose is set by the owning factory so a closed encoder
	// withdraws itself from the factory's registry.
	onClose func()
}

var (
	_ codec.VideoEncoder       = (*Encoder)(nil)
	_ codec.KeyFrameController = (*Encoder)(nil)
)

// NewEncoder constructs an encoder for the negotiated format. Most
// callers should go through Factory.CreateEncoder, which also
// registers the instance for later lookup.
func NewEncoder(format codec.SDPFormat) *Encoder {
	return &Encoder{
		format:    format,
		framerate: defaultFramerate,
		tracker:   codec.NewBitrateTracker(time.Second),
	}
}

// ID returns the session identifier assigned by the factory, or ""
// for encoders constructed directly.
func (e *Encoder) ID() string {
	return e.id
}

// Format returns the negotiated format descriptor.
func (e *Encoder) Format() codec.SDPFormat {
	return e.format
}

// InitEncode stores the negotiated dimensions and rates and resets the
// frame buffer. A nil settings value fails with ErrInvalidParameter
// and leaves prior state untouched.
func (e *Encoder) InitEncode(settings *codec.Settings) error {
	if settings == nil {
		logger.Errorf("InitEncode: nil settings")
		return codec.ErrInvalidParameter
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.width = uint32(settings.Width)
	e.height = uint32(settings.Height)
	e.targetBitrateBps = uint32(settings.StartBitrate) * 1000
	e.framerate = settings.MaxFramerate

	e.image = codec.EncodedImage{
		Data:   e.image.Data[:0],
		Width:  e.width,
		Height: e.height,
	}

	e.initialized.Store(true)

	logger.Infof("initialized: %dx%d @ %vfps, bitrate=%dbps",
		e.width, e.height, e.framerate, e.targetBitrateBps)
	return nil
}

// RegisterEncodeCompleteCallback installs the pipeline's sink,
// replacing any previous one. The encoder does not own the callback.
func (e *Encoder) RegisterEncodeCompleteCallback(callback codec.EncodedImageCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callback = callback
}

// Release drops the callback and returns the encoder to its
// uninitialized state. It is idempotent and always succeeds.
func (e *Encoder) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.callback = nil
	e.initialized.Store(false)
	logger.Infof("released")
	return nil
}

// Encode is driven by the pipeline with raw frames, which are ignored
// since production happens out of band. A keyframe request in
// frameTypes sets the keyframe-requested flag for the external
// producer to observe. Accepted in any state.
func (e *Encoder) Encode(frame image.Image, frameTypes []codec.FrameType) error {
	_ = frame

	if len(frameTypes) > 0 && frameTypes[0] == codec.FrameTypeKey {
		e.keyframeRequested.Store(true)
	}
	return nil
}

// SetRates applies rate-controller feedback: the target bitrate is the
// sum across all layers, the framerate updates only for positive
// values.
func (e *Encoder) SetRates(params codec.RateControlParameters) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if params.FramerateFPS > 0 {
		e.framerate = params.FramerateFPS
	}
	e.targetBitrateBps = params.Bitrate.SumBps()

	logger.Tracef("SetRates: bitrate=%dbps, framerate=%v", e.targetBitrateBps, e.framerate)
}

// Info reports the static capabilities of the passthrough path.
func (e *Encoder) Info() codec.EncoderInfo {
	return codec.EncoderInfo{
		ImplementationName:    "Passthrough " + e.format.Name + " Encoder",
		SupportsNativeHandle:  false,
		IsHardwareAccelerated: false,
		SupportsSimulcast:     false,
		ScalingEnabled:        false,
		PreferredPixelFormats: []codec.PixelFormat{codec.PixelFormatI420},
	}
}

// InjectEncodedFrame hands one externally produced frame to the
// pipeline. It may be called concurrently with the contract methods.
// The frame is rejected with ErrNotInitialized before InitEncode,
// after Release, or while no callback is registered, and with
// ErrInvalidParameter for an empty payload. Width and height override
// the negotiated dimensions only when both are positive.
//
// Injecting a keyframe clears the keyframe-requested flag before the
// delivery outcome is known: a rejected keyframe still counts as
// having answered the request.
//
// The delivery callback runs synchronously on the calling goroutine,
// so a slow sink stalls the injector; wrap the sink in a
// codec.BufferedCallback to bound injection latency.
func (e *Encoder) InjectEncodedFrame(data []byte, rtpTimestamp uint32, captureTimeMS, ntpTimeMS int64, isKeyframe bool, width, height uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized.Load() {
		logger.Errorf("InjectEncodedFrame: encoder not initialized")
		return codec.ErrNotInitialized
	}
	if e.callback == nil {
		logger.Errorf("InjectEncodedFrame: no callback registered")
		return codec.ErrNotInitialized
	}
	if len(data) == 0 {
		logger.Errorf("InjectEncodedFrame: empty payload")
		return codec.ErrInvalidParameter
	}

	if width > 0 && height > 0 {
		e.image.Width = width
		e.image.Height = height
	}

	e.image.RTPTimestamp = rtpTimestamp
	e.image.CaptureTimeMS = captureTimeMS
	e.image.NTPTimeMS = ntpTimeMS
	e.image.SimulcastIdx = 0

	if isKeyframe {
		e.image.FrameType = codec.FrameTypeKey
		e.keyframeRequested.Store(false)
	} else {
		e.image.FrameType = codec.FrameTypeDelta
	}

	e.image.Data = append(e.image.Data[:0], data...)
	e.tracker.AddFrame(len(data), time.Now())

	info := codec.CodecSpecificInfo{
		CodecType: codec.CodecType(e.format.Name),
	}
	if info.CodecType == codec.CodecTypeH264 {
		info.H264.PacketizationMode = codec.H264PacketizationModeNonInterleaved
	}

	if err := e.callback.OnEncodedImage(&e.image, &info); err != nil {
		logger.Errorf("InjectEncodedFrame: callback failed: %v", err)
		return codec.ErrDeliveryFailed
	}
	return nil
}

// RequestKeyFrame raises the keyframe-requested flag. The flag is
// level triggered, so repeated requests are idempotent.
func (e *Encoder) RequestKeyFrame() {
	e.keyframeRequested.Store(true)
}

// KeyFrameRequested reports whether a keyframe has been requested and
// not yet answered by a keyframe injection or an explicit clear.
func (e *Encoder) KeyFrameRequested() bool {
	return e.keyframeRequested.Load()
}

// ClearKeyFrameRequest lowers the keyframe-requested flag.
func (e *Encoder) ClearKeyFrameRequest() {
	e.keyframeRequested.Store(false)
}

// ForceKeyFrame implements codec.KeyFrameController by raising the
// keyframe-requested flag.
func (e *Encoder) ForceKeyFrame() error {
	e.RequestKeyFrame()
	return nil
}

// TargetBitrate returns the current target bitrate in bps.
func (e *Encoder) TargetBitrate() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.targetBitrateBps
}

// Framerate returns the current target framerate in fps.
func (e *Encoder) Framerate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.framerate
}

// MeasuredBitrate returns the bitrate actually injected over the last
// second, for comparison against TargetBitrate.
func (e *Encoder) MeasuredBitrate() float64 {
	return e.tracker.Bitrate()
}

// Close releases the encoder and withdraws it from the factory that
// created it, so factory lookups stop returning it. Idempotent.
func (e *Encoder) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	_ = e.Release()
	if e.onClose != nil {
		e.onClose()
	}
}
