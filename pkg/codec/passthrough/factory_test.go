package passthrough

import (
	"testing"

	"github.com/pion/injector/pkg/codec"
	"github.com/pkg/errors"
)

func TestSupportedFormats(t *testing.T) {
	formats := NewFactory().SupportedFormats()

	if len(formats) != 3 {
		t.Fatalf("got %d formats, want 3", len(formats))
	}
	wantProfiles := []string{"42e01f", "42001f", "640c1f"}
	for i, f := range formats {
		if f.Name != "H264" {
			t.Errorf("formats[%d].Name = %q, want H264", i, f.Name)
		}
		if got := f.ProfileLevelID(); got != wantProfiles[i] {
			t.Errorf("formats[%d] profile-level-id = %q, want %q", i, got, wantProfiles[i])
		}
		if f.Parameters["packetization-mode"] != "1" {
			t.Errorf("formats[%d] packetization-mode = %q, want 1", i, f.Parameters["packetization-mode"])
		}
		if f.Parameters["level-asymmetry-allowed"] != "1" {
			t.Errorf("formats[%d] level-asymmetry-allowed = %q, want 1", i, f.Parameters["level-asymmetry-allowed"])
		}
	}
}

func TestCreateEncoder(t *testing.T) {
	t.Run("AssignsDistinctIDs", func(t *testing.T) {
		f := NewFactory()
		a, err := f.CreateEncoder(h264Format("42e01f"))
		if err != nil {
			t.Fatal(err)
		}
		b, err := f.CreateEncoder(h264Format("42e01f"))
		if err != nil {
			t.Fatal(err)
		}
		if a.ID() == "" || b.ID() == "" || a.ID() == b.ID() {
			t.Errorf("IDs = (%q, %q), want distinct non-empty", a.ID(), b.ID())
		}
	})

	t.Run("EmptyFormatName", func(t *testing.T) {
		f := NewFactory()
		if _, err := f.CreateEncoder(codec.SDPFormat{}); !errors.Is(err, codec.ErrInvalidParameter) {
			t.Errorf("CreateEncoder(empty format) = %v, want ErrInvalidParameter", err)
		}
	})
}

func TestLastEncoder(t *testing.T) {
	t.Run("TracksMostRecent", func(t *testing.T) {
		f := NewFactory()
		if f.LastEncoder() != nil {
			t.Error("LastEncoder() on empty factory != nil")
		}

		first, err := f.CreateEncoder(h264Format("42e01f"))
		if err != nil {
			t.Fatal(err)
		}
		second, err := f.CreateEncoder(h264Format("42001f"))
		if err != nil {
			t.Fatal(err)
		}

		if got := f.LastEncoder(); got != second {
			t.Errorf("LastEncoder() = %v, want the second instance", got)
		}
		if got := f.LastEncoder(); got == first {
			t.Error("LastEncoder() returned the first instance after a second Create")
		}
	})

	t.Run("NilAfterClose", func(t *testing.T) {
		f := NewFactory()
		enc, err := f.CreateEncoder(h264Format("42e01f"))
		if err != nil {
			t.Fatal(err)
		}
		enc.Close()
		if got := f.LastEncoder(); got != nil {
			t.Errorf("LastEncoder() = %v after Close, want nil", got)
		}
	})

	t.Run("SurvivesOlderClose", func(t *testing.T) {
		f := NewFactory()
		first, err := f.CreateEncoder(h264Format("42e01f"))
		if err != nil {
			t.Fatal(err)
		}
		second, err := f.CreateEncoder(h264Format("42e01f"))
		if err != nil {
			t.Fatal(err)
		}
		first.Close()
		if got := f.LastEncoder(); got != second {
			t.Errorf("LastEncoder() = %v after closing an older instance, want the newest", got)
		}
	})
}

func TestEncoderLookup(t *testing.T) {
	f := NewFactory()
	enc, err := f.CreateEncoder(h264Format("42e01f"))
	if err != nil {
		t.Fatal(err)
	}

	got, ok := f.Encoder(enc.ID())
	if !ok || got != enc {
		t.Errorf("Encoder(%q) = (%v, %v), want the created instance", enc.ID(), got, ok)
	}

	enc.Close()
	if _, ok := f.Encoder(enc.ID()); ok {
		t.Error("Encoder() still finds a closed instance")
	}

	if _, ok := f.Encoder("no-such-id"); ok {
		t.Error("Encoder() found an unknown ID")
	}
}

func TestDefaultFactory(t *testing.T) {
	defer SetDefaultFactory(nil)

	if DefaultFactory() != nil {
		t.Error("DefaultFactory() != nil before install")
	}

	f := NewFactory()
	SetDefaultFactory(f)
	if DefaultFactory() != f {
		t.Error("DefaultFactory() did not return the installed factory")
	}

	replacement := NewFactory()
	SetDefaultFactory(replacement)
	if DefaultFactory() != replacement {
		t.Error("DefaultFactory() did not return the replacement factory")
	}
}
