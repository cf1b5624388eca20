package codec

import (
	"sync"

	"github.com/pion/injector/internal/logging"
)

var logger = logging.NewLogger("codec")

// BufferedCallback decouples frame producers from a slow delivery sink
// by inserting a bounded hand-off queue consumed by one worker
// goroutine. OnEncodedImage copies the frame and returns without
// blocking; when the queue is full it fails fast with
// ErrDeliveryFailed instead of stalling the producer, leaving the
// retry decision to the caller.
type BufferedCallback struct {
	sink  EncodedImageCallback
	queue chan bufferedFrame
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

type bufferedFrame struct {
	img  EncodedImage
	info CodecSpecificInfo
}

var _ EncodedImageCallback = (*BufferedCallback)(nil)

// NewBufferedCallback wraps sink with a queue of the given capacity
// and starts the delivery worker. Capacities below one are raised to
// one.
func NewBufferedCallback(sink EncodedImageCallback, capacity int) *BufferedCallback {
	if capacity < 1 {
		capacity = 1
	}
	b := &BufferedCallback{
		sink:  sink,
		queue: make(chan bufferedFrame, capacity),
		done:  make(chan struct{}),
	}
	go b.run()
	return b
}

// OnEncodedImage implements EncodedImageCallback. The frame payload is
// copied, so the caller may reuse img.Data immediately.
func (b *BufferedCallback) OnEncodedImage(img *EncodedImage, info *CodecSpecificInfo) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrDeliveryFailed
	}

	f := bufferedFrame{img: *img}
	f.img.Data = append([]byte(nil), img.Data...)
	if info != nil {
		f.info = *info
	}

	select {
	case b.queue <- f:
		return nil
	default:
		return ErrDeliveryFailed
	}
}

// Close stops accepting frames, waits for queued frames to drain, and
// stops the worker.
func (b *BufferedCallback) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *BufferedCallback) run() {
	defer close(b.done)
	for f := range b.queue {
		if err := b.sink.OnEncodedImage(&f.img, &f.info); err != nil {
			logger.Warnf("dropping frame, sink rejected it: %v", err)
		}
	}
}
