package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetconsult/auth-api/internal/core/ports"
	"github.com/vetconsult/auth-api/pkg/logger"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 15 * time.Second
)

// Dispatcher delivers fire-and-forget SMS on a fixed set of workers. Messages
// are sharded by mobile number so texts to one recipient keep their order.
type Dispatcher struct {
	workers  []chan ports.SMSMessage
	notifier ports.Notifier
	log      zerolog.Logger
	onResult func(ok bool)
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.SMSMessage, numWorkers),
		notifier: notifier,
		log:      log,
		onResult: func(bool) {},
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.SMSMessage, channelBuffer)
	}
	return d
}

// OnResult registers a callback invoked after every delivery attempt.
func (d *Dispatcher) OnResult(fn func(ok bool)) {
	d.onResult = fn
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands msg to the worker responsible for its mobile. It never blocks
// the caller: when that worker's buffer is full the message is dropped.
func (d *Dispatcher) Enqueue(msg ports.SMSMessage) {
	select {
	case d.workers[d.shardIndex(msg.Mobile)] <- msg:
	default:
		d.log.Warn().Str("mobile", logger.MaskMobile(msg.Mobile)).Msg("sms queue full, message dropped")
		d.onResult(false)
	}
}

// shardIndex maps a mobile number deterministically to a worker index.
func (d *Dispatcher) shardIndex(mobile string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(mobile))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.SMSMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			err := d.notifier.Send(sendCtx, msg.Mobile, msg.Body)
			cancel()
			if err != nil {
				d.log.Error().Err(err).
					Str("mobile", logger.MaskMobile(msg.Mobile)).
					Int("worker_id", id).
					Msg("sms delivery failed")
			}
			d.onResult(err == nil)
		}
	}
}
