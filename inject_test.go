package injector

import (
	"testing"

	"github.com/pion/injector/pkg/codec"
	"github.com/pion/injector/pkg/codec/passthrough"
)

func newReadyEncoder(t *testing.T, sink codec.EncodedImageCallback) (*passthrough.Factory, *passthrough.Encoder) {
	t.Helper()

	factory := passthrough.NewFactory()
	enc, err := factory.CreateEncoder(factory.SupportedFormats()[0])
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.InitEncode(&codec.Settings{Width: 1280, Height: 720, StartBitrate: 1000, MaxFramerate: 30}); err != nil {
		t.Fatal(err)
	}
	enc.RegisterEncodeCompleteCallback(sink)
	return factory, enc
}

func acceptAll(*codec.EncodedImage, *codec.CodecSpecificInfo) error { return nil }

func TestInjectEncodedFrameStatus(t *testing.T) {
	t.Run("NilHandle", func(t *testing.T) {
		if got := InjectEncodedFrame(nil, []byte{0x01}, 0, 0, 0, false, 0, 0); got != StatusInvalidHandle {
			t.Errorf("InjectEncodedFrame(nil, ...) = %v, want StatusInvalidHandle", got)
		}
	})

	t.Run("OK", func(t *testing.T) {
		_, enc := newReadyEncoder(t, codec.CallbackFunc(acceptAll))
		if got := InjectEncodedFrame(enc, []byte{0x01, 0x02}, 1000, 5, 5000, true, 0, 0); got != StatusOK {
			t.Errorf("InjectEncodedFrame() = %v, want StatusOK", got)
		}
	})

	t.Run("Uninitialized", func(t *testing.T) {
		factory := passthrough.NewFactory()
		enc, err := factory.CreateEncoder(factory.SupportedFormats()[0])
		if err != nil {
			t.Fatal(err)
		}
		if got := InjectEncodedFrame(enc, []byte{0x01}, 0, 0, 0, false, 0, 0); got != StatusUninitialized {
			t.Errorf("InjectEncodedFrame() = %v, want StatusUninitialized", got)
		}
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		_, enc := newReadyEncoder(t, codec.CallbackFunc(acceptAll))
		if got := InjectEncodedFrame(enc, nil, 0, 0, 0, false, 0, 0); got != StatusErrParameter {
			t.Errorf("InjectEncodedFrame(empty) = %v, want StatusErrParameter", got)
		}
	})

	t.Run("DeliveryFailed", func(t *testing.T) {
		rejecting := codec.CallbackFunc(func(*codec.EncodedImage, *codec.CodecSpecificInfo) error {
			return codec.ErrDeliveryFailed
		})
		_, enc := newReadyEncoder(t, rejecting)
		if got := InjectEncodedFrame(enc, []byte{0x01}, 0, 0, 0, false, 0, 0); got != StatusErrDelivery {
			t.Errorf("InjectEncodedFrame() = %v, want StatusErrDelivery", got)
		}
	})
}

func TestKeyFrameRequestSurface(t *testing.T) {
	t.Run("NilHandleTolerance", func(t *testing.T) {
		if IsKeyFrameRequested(nil) {
			t.Error("IsKeyFrameRequested(nil) = true, want false")
		}
		// Must not panic.
		RequestKeyFrame(nil)
		ClearKeyFrameRequest(nil)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		_, enc := newReadyEncoder(t, codec.CallbackFunc(acceptAll))

		RequestKeyFrame(enc)
		if !IsKeyFrameRequested(enc) {
			t.Error("IsKeyFrameRequested() = false after RequestKeyFrame")
		}
		ClearKeyFrameRequest(enc)
		if IsKeyFrameRequested(enc) {
			t.Error("IsKeyFrameRequested() = true after ClearKeyFrameRequest")
		}
	})
}

func TestLastEncoderSurface(t *testing.T) {
	if LastEncoder(nil) != nil {
		t.Error("LastEncoder(nil) != nil")
	}

	factory, enc := newReadyEncoder(t, codec.CallbackFunc(acceptAll))
	if got := LastEncoder(factory); got != enc {
		t.Errorf("LastEncoder() = %v, want the created encoder", got)
	}

	enc.Close()
	if got := LastEncoder(factory); got != nil {
		t.Errorf("LastEncoder() = %v after Close, want nil", got)
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusOK:            "ok",
		StatusInvalidHandle: "invalid handle",
		StatusErrParameter:  "invalid parameter",
		StatusUninitialized: "uninitialized",
		StatusErrDelivery:   "delivery failed",
		Status(-99):         "unknown error",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int32(status), got, want)
		}
	}
}
