package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/blogcom/account-api/internal/api/metrics"
	"github.com/blogcom/account-api/internal/core/ports"
	"github.com/blogcom/account-api/internal/infrastructure/mail"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256

	kindOTP   = "otp"
	kindReset = "password_reset"
)

// job is a rendered e-mail waiting for delivery.
type job struct {
	kind string
	msg  ports.Email
}

// Dispatcher delivers account e-mails on a fixed set of workers. Jobs are
// routed by a hash of the recipient, so mails to one address go out in the
// order they were queued.
type Dispatcher struct {
	workers  []chan job
	sender   ports.MailSender
	otpTTL   time.Duration
	resetTTL time.Duration
	log      zerolog.Logger
	stopped  chan struct{}
}

// Options configures the validity windows quoted in outgoing mail.
type Options struct {
	Workers  int
	OTPTTL   time.Duration
	ResetTTL time.Duration
}

// NewDispatcher creates a Dispatcher with opts.Workers sharded workers.
// If opts.Workers <= 0, defaultWorkers is used.
func NewDispatcher(opts Options, sender ports.MailSender, log zerolog.Logger) *Dispatcher {
	n := opts.Workers
	if n <= 0 {
		n = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan job, n),
		sender:   sender,
		otpTTL:   opts.OTPTTL,
		resetTTL: opts.ResetTTL,
		log:      log,
		stopped:  make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain what is already queued
// and stop when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	finished := make(chan struct{}, len(d.workers))
	for i, ch := range d.workers {
		go func(id int, ch <-chan job) {
			d.runWorker(ctx, id, ch)
			finished <- struct{}{}
		}(i, ch)
	}
	go func() {
		for range d.workers {
			<-finished
		}
		close(d.stopped)
	}()
}

// Wait blocks until every worker has exited or ctx expires.
func (d *Dispatcher) Wait(ctx context.Context) error {
	select {
	case <-d.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendOTP queues the verification e-mail for email.
func (d *Dispatcher) SendOTP(ctx context.Context, email, code string) error {
	msg, err := mail.OTPMessage(email, code, minutes(d.otpTTL))
	if err != nil {
		return err
	}
	return d.enqueue(ctx, job{kind: kindOTP, msg: msg})
}

// SendPasswordReset queues the password reset e-mail for email.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, email, token string) error {
	msg, err := mail.PasswordResetMessage(email, token, minutes(d.resetTTL))
	if err != nil {
		return err
	}
	return d.enqueue(ctx, job{kind: kindReset, msg: msg})
}

// enqueue hands j to the worker responsible for its recipient. It blocks
// while that worker's buffer is full, until ctx is done.
func (d *Dispatcher) enqueue(ctx context.Context, j job) error {
	idx := d.shardIndex(j.msg.To)
	select {
	case d.workers[idx] <- j:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s mail: %w", j.kind, ctx.Err())
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan job) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx), id, ch)
			return
		case j := <-ch:
			metrics.MailQueueDepth.WithLabelValues(workerID).Dec()
			d.deliver(context.WithoutCancel(ctx), id, j)
		}
	}
}

// drain delivers whatever is still buffered after shutdown was requested.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan job) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case j := <-ch:
			metrics.MailQueueDepth.WithLabelValues(workerID).Dec()
			d.deliver(ctx, id, j)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, j job) {
	start := time.Now()
	err := d.sender.Send(ctx, j.msg)
	metrics.MailDeliveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MailsFailedTotal.WithLabelValues(j.kind).Inc()
		d.log.Error().Err(err).
			Str("kind", j.kind).
			Str("to", j.msg.To).
			Int("worker_id", id).
			Msg("mail delivery failed")
		return
	}
	metrics.MailsSentTotal.WithLabelValues(j.kind).Inc()
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Round(time.Minute) / time.Minute)
}
