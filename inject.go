// Package injector bridges externally produced, already-compressed
// video into a WebRTC send pipeline. The passthrough encoder under
// pkg/codec/passthrough fulfills the pipeline's encoder contract
// without compressing anything; this package adds the
// application-facing injection surface, delivery sinks that feed pion
// tracks or raw RTP writers, and the RTCP loop that converts PLI/FIR
// into keyframe requests.
package injector

import (
	"github.com/pion/injector/pkg/codec"
	"github.com/pion/injector/pkg/codec/passthrough"
	"github.com/pkg/errors"
)

// Status is the flat result code returned across the injection
// surface. Zero is success, negative values are failures.
type Status int32

// Status codes.
const (
	StatusOK            Status = 0
	StatusInvalidHandle Status = -1
	StatusErrParameter  Status = -2
	StatusUninitialized Status = -3
	StatusErrDelivery   Status = -4
	StatusErrUnknown    Status = -5
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidHandle:
		return "invalid handle"
	case StatusErrParameter:
		return "invalid parameter"
	case StatusUninitialized:
		return "uninitialized"
	case StatusErrDelivery:
		return "delivery failed"
	default:
		return "unknown error"
	}
}

func statusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, codec.ErrInvalidParameter):
		return StatusErrParameter
	case errors.Is(err, codec.ErrNotInitialized):
		return StatusUninitialized
	case errors.Is(err, codec.ErrDeliveryFailed):
		return StatusErrDelivery
	default:
		return StatusErrUnknown
	}
}

// InjectEncodedFrame pushes one pre-encoded frame into enc. A nil
// handle yields StatusInvalidHandle; other failures map the encoder's
// error to the matching status code.
func InjectEncodedFrame(enc *passthrough.Encoder, data []byte, rtpTimestamp uint32, captureTimeMS, ntpTimeMS int64, isKeyframe bool, width, height uint32) Status {
	if enc == nil {
		return StatusInvalidHandle
	}
	return statusFromError(enc.InjectEncodedFrame(data, rtpTimestamp, captureTimeMS, ntpTimeMS, isKeyframe, width, height))
}

// IsKeyFrameRequested reports whether the pipeline or the application
// has asked enc for a keyframe. False for a nil handle.
func IsKeyFrameRequested(enc *passthrough.Encoder) bool {
	if enc == nil {
		return false
	}
	return enc.KeyFrameRequested()
}

// ClearKeyFrameRequest lowers the keyframe-requested flag. No-op for a
// nil handle.
func ClearKeyFrameRequest(enc *passthrough.Encoder) {
	if enc != nil {
		enc.ClearKeyFrameRequest()
	}
}

// RequestKeyFrame raises the keyframe-requested flag. No-op for a nil
// handle.
func RequestKeyFrame(enc *passthrough.Encoder) {
	if enc != nil {
		enc.RequestKeyFrame()
	}
}

// LastEncoder returns the most recently created live encoder of
// factory, or nil for a nil or empty factory.
func LastEncoder(factory *passthrough.Factory) *passthrough.Encoder {
	if factory == nil {
		return nil
	}
	return factory.LastEncoder()
}
