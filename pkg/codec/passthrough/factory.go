package passthrough

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pion/injector/pkg/codec"
	"github.com/pkg/errors"
)

// Factory creates passthrough encoders on behalf of the pipeline's
// format negotiation and keeps a registry of the live instances so
// out-of-band producers can reach them later. The factory never owns
// an encoder; the pipeline does. An encoder leaves the registry when
// it is closed, so lookups cannot return a disposed instance.
type Factory struct {
	mu       sync.Mutex
	last     *Encoder
	encoders map[string]*Encoder
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{
		encoders: make(map[string]*Encoder),
	}
}

func h264Format(profileLevelID string) codec.SDPFormat {
	return codec.NewSDPFormat("H264", map[string]string{
		"level-asymmetry-allowed": "1",
		"packetization-mode":      "1",
		"profile-level-id":        profileLevelID,
	})
}

// SupportedFormats returns the fixed, ordered catalogue of formats
// this factory can produce encoders for: H264 constrained baseline,
// baseline and high profile, all at level 3.1.
func (f *Factory) SupportedFormats() []codec.SDPFormat {
	return []codec.SDPFormat{
		h264Format("42e01f"),
		h264Format("42001f"),
		h264Format("640c1f"),
	}
}

// CreateEncoder constructs an encoder for the negotiated format,
// assigns it a session ID and records it as the most recently created
// instance. The caller owns the returned encoder and must Close it
// when done so the registry entry is withdrawn.
func (f *Factory) CreateEncoder(format codec.SDPFormat) (*Encoder, error) {
	if format.Name == "" {
		return nil, errors.Wrap(codec.ErrInvalidParameter, "passthrough: format has no codec name")
	}

	enc := NewEncoder(format)
	enc.id = uuid.NewString()
	enc.onClose = func() { f.remove(enc) }

	f.mu.Lock()
	f.encoders[enc.id] = enc
	f.last = enc
	f.mu.Unlock()

	logger.Infof("created encoder %s for %s (%s)", enc.id, format.Name, format.ProfileLevelID())
	return enc, nil
}

// LastEncoder returns the most recently created encoder that is still
// live, or nil. Use Encoder for lookups that must not alias a slot
// shared between sessions.
func (f *Factory) LastEncoder() *Encoder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Encoder looks up a live encoder by its session ID.
func (f *Factory) Encoder(id string) (*Encoder, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc, ok := f.encoders[id]
	return enc, ok
}

func (f *Factory) remove(enc *Encoder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.encoders, enc.id)
	if f.last == enc {
		f.last = nil
	}
}

var (
	defaultFactoryMu sync.Mutex
	defaultFactory   *Factory
)

// SetDefaultFactory installs the process-wide factory used by callers
// that are not threaded a factory handle, replacing any previous one.
func SetDefaultFactory(f *Factory) {
	defaultFactoryMu.Lock()
	defer defaultFactoryMu.Unlock()
	defaultFactory = f
}

// DefaultFactory returns the process-wide factory, or nil when none
// has been installed.
func DefaultFactory() *Factory {
	defaultFactoryMu.Lock()
	defer defaultFactoryMu.Unlock()
	return defaultFactory
}
