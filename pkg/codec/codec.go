// Package codec defines the encoder lifecycle contract used by the
// injector send path, together with the frame and rate types shared
// between an encoder and the pipeline that drives it.
package codec

import (
	"fmt"
	"image"
)

// FrameType describes how an encoded frame depends on other frames.
type FrameType int

const (
	// FrameTypeEmpty marks a frame slot the encoder chose to skip.
	FrameTypeEmpty FrameType = iota
	// FrameTypeKey is a self-contained frame that requires no prior
	// frames to decode.
	FrameTypeKey
	// FrameTypeDelta is predicted from previously decoded frames.
	FrameTypeDelta
)

func (t FrameType) String() string {
	switch t {
	case FrameTypeEmpty:
		return "empty"
	case FrameTypeKey:
		return "key"
	case FrameTypeDelta:
		return "delta"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Settings carries the negotiated stream configuration handed to an
// encoder by the send pipeline when it is (re)initialized.
type Settings struct {
	Width  int
	Height int
	// StartBitrate is the initial target bitrate in kbps.
	StartBitrate int
	// MaxFramerate is the negotiated frame rate ceiling in fps.
	MaxFramerate float64
}

const (
	maxSpatialLayers   = 5
	maxTemporalStreams = 4
)

// BitrateAllocation is a per-layer bitrate grid. The pipeline's rate
// controller fills in one entry per active spatial/temporal layer; an
// encoder that does not layer reads the sum.
type BitrateAllocation struct {
	layers [maxSpatialLayers][maxTemporalStreams]uint32
}

// SetBitrate assigns bps to one spatial/temporal slot. Out-of-range
// indices are ignored.
func (a *BitrateAllocation) SetBitrate(spatial, temporal int, bps uint32) {
	if spatial < 0 || spatial >= maxSpatialLayers || temporal < 0 || temporal >= maxTemporalStreams {
		return
	}
	a.layers[spatial][temporal] = bps
}

// GetBitrate reads one spatial/temporal slot. Out-of-range indices
// read as zero.
func (a *BitrateAllocation) GetBitrate(spatial, temporal int) uint32 {
	if spatial < 0 || spatial >= maxSpatialLayers || temporal < 0 || temporal >= maxTemporalStreams {
		return 0
	}
	return a.layers[spatial][temporal]
}

// SumBps returns the total allocation across all layers.
func (a *BitrateAllocation) SumBps() uint32 {
	var sum uint32
	for i := range a.layers {
		for j := range a.layers[i] {
			sum += a.layers[i][j]
		}
	}
	return sum
}

// RateControlParameters is the periodic rate feedback pushed into an
// encoder by the pipeline's congestion controller.
type RateControlParameters struct {
	Bitrate BitrateAllocation
	// FramerateFPS is the controller's frame rate estimate. Values
	// <= 0 mean "no update".
	FramerateFPS float64
}

// PixelFormat names a raw pixel layout an encoder can consume.
type PixelFormat string

// PixelFormatI420 is 4:2:0 planar YUV.
const PixelFormatI420 PixelFormat = "I420"

// EncoderInfo describes static encoder capabilities, queried once by
// the pipeline after construction.
type EncoderInfo struct {
	ImplementationName    string
	SupportsNativeHandle  bool
	IsHardwareAccelerated bool
	SupportsSimulcast     bool
	// ScalingEnabled reports whether quality-based resolution scaling
	// may be applied upstream of this encoder.
	ScalingEnabled        bool
	PreferredPixelFormats []PixelFormat
}

// EncodedImage is a single compressed frame plus the metadata the
// packetizer needs. Encoders reuse one EncodedImage across calls, so a
// callback must not retain it (or its Data slice) beyond the
// OnEncodedImage invocation; copy what must outlive the call.
type EncodedImage struct {
	Data          []byte
	Width         uint32
	Height        uint32
	RTPTimestamp  uint32
	CaptureTimeMS int64
	NTPTimeMS     int64
	FrameType     FrameType
	SimulcastIdx  int
}

// CodecType identifies the compressed-video family of a frame.
type CodecType string

// Codec families understood by the send path.
const (
	CodecTypeH264 CodecType = "H264"
	CodecTypeVP8  CodecType = "VP8"
	CodecTypeVP9  CodecType = "VP9"
)

// H264PacketizationMode selects the RFC 6184 packetization mode.
type H264PacketizationMode int

const (
	// H264PacketizationModeSingleNALU maps one NAL unit per packet.
	H264PacketizationModeSingleNALU H264PacketizationMode = 0
	// H264PacketizationModeNonInterleaved allows FU-A fragmentation.
	H264PacketizationModeNonInterleaved H264PacketizationMode = 1
)

// CodecSpecificInfo rides along with each EncodedImage and carries
// per-family packetization hints.
type CodecSpecificInfo struct {
	CodecType CodecType
	H264      H264SpecificInfo
}

// H264SpecificInfo is the H264 portion of CodecSpecificInfo.
type H264SpecificInfo struct {
	PacketizationMode H264PacketizationMode
}

// EncodedImageCallback is the pipeline-provided sink for produced
// frames. A nil return means the frame was accepted; any error means
// the pipeline is not currently taking frames.
type EncodedImageCallback interface {
	OnEncodedImage(img *EncodedImage, info *CodecSpecificInfo) error
}

// CallbackFunc adapts a plain function to EncodedImageCallback.
type CallbackFunc func(img *EncodedImage, info *CodecSpecificInfo) error

// OnEncodedImage implements EncodedImageCallback.
func (f CallbackFunc) OnEncodedImage(img *EncodedImage, info *CodecSpecificInfo) error {
	return f(img, info)
}

// VideoEncoder is the lifecycle contract a pluggable encoder fulfills
// for the send pipeline. The pipeline invokes every method
// unconditionally, so implementations must accept all of them, even as
// no-ops.
//
// InitEncode, Encode, SetRates, Release and Info are called from the
// pipeline's encoder thread. Implementations that expose additional
// entry points callable from other threads must do their own locking.
type VideoEncoder interface {
	// InitEncode (re)configures the encoder for a stream. It must be
	// called before frames are produced.
	InitEncode(settings *Settings) error

	// RegisterEncodeCompleteCallback installs the sink that receives
	// each produced frame, replacing any previous sink. The encoder
	// does not own the callback.
	RegisterEncodeCompleteCallback(callback EncodedImageCallback)

	// Release returns the encoder to its uninitialized state. It is
	// idempotent.
	Release() error

	// Encode submits one raw frame together with the frame types the
	// pipeline wants back (a keyframe request arrives as
	// FrameTypeKey in frameTypes).
	Encode(frame image.Image, frameTypes []FrameType) error

	// SetRates applies rate-controller feedback.
	SetRates(params RateControlParameters)

	// Info reports static capabilities.
	Info() EncoderInfo
}

// KeyFrameController is implemented by encoders that can be told to
// produce a keyframe out of band.
type KeyFrameController interface {
	ForceKeyFrame() error
}
