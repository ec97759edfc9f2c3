// Package hostmux implements the host side of the protocol: one
// HostClient per device connection, correlating requests with responses,
// fanning topic messages out to subscribers, and tearing the whole
// connection down cleanly on the first fatal error (spec.md 4.5). It is
// grounded on internal/ron's Server client bookkeeping (a response
// channel per outstanding command, a heartbeat-driven liveness check)
// generalized to arbitrary typed endpoints via Go generics.
package hostmux

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sandia-minimega/icdrpc/v2/internal/topichub"
	"github.com/sandia-minimega/icdrpc/v2/pkg/codec"
	"github.com/sandia-minimega/icdrpc/v2/pkg/config"
	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/minilog"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wire"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wireheader"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

type outFrame struct {
	header []byte
	body   []byte
}

// HostClient is the host-side handle to one connected device.
type HostClient struct {
	tx    wire.Tx
	rx    wire.Rx
	codec codec.Codec
	cfg   config.HostClientConfig

	retry   *RetryTracker
	waits   *waitMap
	excl    *exclusiveRegistry
	hub     *topichub.Hub
	stopper *Stopper

	outCh   chan outFrame
	limiter *rate.Limiter

	metrics *hostMetrics
}

// NewHostClient wires tx/rx behind request/response correlation and
// topic fan-out. Call Run to start the background workers.
func NewHostClient(tx wire.Tx, rx wire.Rx, cfg config.HostClientConfig) *HostClient {
	return &HostClient{
		tx:      tx,
		rx:      rx,
		codec:   codec.Default,
		cfg:     cfg,
		retry:   NewRetryTracker(cfg.RetryBits),
		waits:   newWaitMap(),
		excl:    newExclusiveRegistry(),
		hub:     topichub.New(),
		stopper: NewStopper(),
		outCh:   make(chan outFrame, cfg.OutgoingDepth),
		limiter: rate.NewLimiter(rate.Inf, 1),
		metrics: newHostMetrics(),
	}
}

// SetRateLimit paces outgoing frames, e.g. to respect a slow embedded
// USB endpoint.
func (hc *HostClient) SetRateLimit(r rate.Limit, burst int) {
	hc.limiter = rate.NewLimiter(r, burst)
}

// Run starts out_worker and in_worker and blocks until either exits
// (spec.md 4.5: "Both workers listen to a shared Stopper; either worker
// exiting stops the other").
func (hc *HostClient) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hc.outWorker(gctx) })
	g.Go(func() error { return hc.inWorker(gctx) })

	err := g.Wait()
	hc.stopper.Stop()
	hc.waits.Close()
	hc.excl.closeAll()
	return err
}

func (hc *HostClient) outWorker(ctx context.Context) error {
	defer hc.stopper.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-hc.stopper.Done():
			return nil
		case f := <-hc.outCh:
			if err := hc.limiter.Wait(ctx); err != nil {
				return err
			}
			if err := hc.tx.Send(ctx, f.header, f.body); err != nil {
				minilog.Error("hostmux: out_worker send failed: %v", err)
				return err
			}
		}
	}
}

func (hc *HostClient) inWorker(ctx context.Context) error {
	defer hc.stopper.Stop()
	buf := make([]byte, 1<<16)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-hc.stopper.Done():
			return nil
		default:
		}

		frame, err := hc.rx.Receive(ctx, buf)
		if err != nil {
			if wire.AsRxKind(err) == wire.RxMessageTooLarge {
				minilog.Debug("hostmux: in_worker dropped oversize frame: %v", err)
				continue
			}
			return err
		}

		hdr, body, ok := wireheader.TakeFromSlice(frame)
		if !ok {
			minilog.Debug("hostmux: in_worker dropped malformed header")
			continue
		}
		bodyCopy := append([]byte(nil), body...)

		for _, full := range hc.hub.Keys() {
			if wirekey.NewVarKey8(full).Equal(hdr.Key) {
				hc.hub.Publish(full, bodyCopy)
			}
		}

		if hc.excl.deliver(hdr.Key, bodyCopy, hc.cfg.SubscriberTimeoutIfFull) {
			continue
		}

		if hc.waits.Deliver(hdr.Key, hdr.SeqNo, bodyCopy) {
			hc.metrics.responsesDelivered.Inc()
			continue
		}

		minilog.Debug("hostmux: frame matched no subscription and no waiter")
	}
}

// enqueue hands a frame to out_worker, respecting ctx and the shared
// Stopper.
func (hc *HostClient) enqueue(ctx context.Context, header, body []byte) error {
	select {
	case hc.outCh <- outFrame{header: header, body: body}:
		return nil
	case <-hc.stopper.Done():
		return errClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (hc *HostClient) buildHeader(key wirekey.Key, seq uint32) ([]byte, wirekey.VarSeq) {
	varSeq := seqForWidth(hc.cfg.SeqKind, seq)
	h := wireheader.VarHeader{Key: wirekey.NewVarKey8(key), SeqNo: varSeq}
	buf := make([]byte, h.EncodedLen())
	written, _, ok := h.WriteToSlice(buf)
	if !ok {
		panic("hostmux: header encode buffer too small")
	}
	return written, varSeq
}

func seqForWidth(w wirekey.Width, v uint32) wirekey.VarSeq {
	switch w {
	case wirekey.Width1:
		return wirekey.NewVarSeq1(uint8(v))
	case wirekey.Width2:
		return wirekey.NewVarSeq2(uint16(v))
	default:
		return wirekey.NewVarSeq4(v)
	}
}

// Subscribe opens an exclusive subscription on topic, replacing any
// previous one (spec.md 4.5).
func (hc *HostClient) Subscribe(topic icd.Topic, depth int) *Subscription {
	return hc.excl.Subscribe(topic.Key, depth)
}

// SubscribeMulti opens an additive broadcast subscription on topic.
func (hc *HostClient) SubscribeMulti(topic icd.Topic, depth int) *MultiSubscription {
	return &MultiSubscription{sub: hc.hub.Subscribe(topic.Key, depth)}
}

// Publish sends a one-way message on topic. seq is caller-chosen since
// topic messages aren't correlated with a response.
func (hc *HostClient) Publish(ctx context.Context, topic icd.Topic, seq uint32, msg interface{}) error {
	body, err := hc.codec.Marshal(msg)
	if err != nil {
		return err
	}
	header, _ := hc.buildHeader(topic.Key, seq)
	return hc.enqueue(ctx, header, body)
}
