// Package dispatch implements the server half of the protocol: routing
// incoming frames to registered handlers by key, replying on the
// negotiated width, and reporting protocol failures on the reserved
// error key (spec.md 4.4, 5). It is grounded on internal/ron's
// Server/clientHandler command-dispatch loop, generalized from a fixed
// gob Command/Response pair to an arbitrary registered key set.
package dispatch

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sandia-minimega/icdrpc/v2/pkg/codec"
	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/minilog"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wire"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wireheader"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// handler is what a registered key resolves to: a closure that already
// knows how to decode the body, call user code, and reply.
type handler struct {
	spawn  bool
	invoke func(ctx context.Context, s *Sender, hdr wireheader.VarHeader, body []byte)
}

// Dispatcher routes frames arriving on one connection to the handlers
// bound to it. One Dispatcher serves one connection; construct a new one
// per accepted client (internal/ron does the equivalent by handing each
// client its own *client state in clientHandler).
type Dispatcher struct {
	Map   *icd.DeviceMap
	Codec codec.Codec

	// Spawner executes spawn-flavor handlers. If nil, spawn handlers fail
	// with WireError.FailedToSpawn (modeling an embedded device with no
	// executor configured).
	Spawner wire.Spawn

	SeqWidth wirekey.Width
	MaxFrame int

	metrics *metrics

	mu       sync.Mutex
	pending  map[string]*handler // registered before Finalize, keyed by full 8-byte key string
	final    map[string]*handler // built by Finalize, keyed by folded MinKeyLen key
	finalize bool
	sender   *Sender // set once Run starts; lets other goroutines publish topics
}

// New constructs a Dispatcher over m. Call Finalize once every endpoint
// and topic handler has been bound.
func New(m *icd.DeviceMap, reg *prometheus.Registry) *Dispatcher {
	return &Dispatcher{
		Map:      m,
		Codec:    codec.Default,
		SeqWidth: wirekey.Width1,
		MaxFrame: 4096,
		metrics:  newMetrics(reg),
		pending:  make(map[string]*handler),
	}
}

func keyString(k wirekey.Key) string { return string(k[:]) }

func foldedKeyString(vk wirekey.VarKey) string {
	return string(append([]byte{byte(vk.Kind())}, vk.Bytes()...))
}

func (d *Dispatcher) register(fullKey wirekey.Key, h *handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[keyString(fullKey)] = h
}

// RegisterStandard binds the reserved Ping and GetAllSchemas endpoints
// (spec.md 4.6). Call it after registering application endpoints/topics
// and before Finalize.
func (d *Dispatcher) RegisterStandard() {
	d.Map.Topics = append(d.Map.Topics, icd.GetAllSchemaDataTopic, icd.LoggingTopic)

	Bind(d, icd.PingEndpoint, func(ctx context.Context, req uint32) uint32 {
		return req
	})
	d.registerGetAllSchemas()
}

// registerGetAllSchemas binds GetAllSchemasEndpoint by hand rather than
// through Bind: the handler needs the connection's Sender to run
// send_all_schemas (spec.md 4.4 item 3) before it replies, and Bind's
// generic handler shape has no way to hand that through to its fn.
func (d *Dispatcher) registerGetAllSchemas() {
	ep := icd.GetAllSchemasEndpoint
	d.Map.Endpoints = append(d.Map.Endpoints, ep)
	d.register(ep.ReqKey, &handler{invoke: func(ctx context.Context, s *Sender, hdr wireheader.VarHeader, body []byte) {
		totals := d.sendAllSchemas(ctx, s)
		out, err := d.Codec.Marshal(totals)
		if err != nil {
			d.metrics.serFailed.Inc()
			_ = s.SendWireError(ctx, icd.WireError{Kind: icd.ErrSerFailed}, hdr.SeqNo, d.Codec)
			return
		}
		_ = s.Send(ctx, wirekey.NewVarKey8(ep.RespKey), hdr.SeqNo, out)
	}})
}

// sendAllSchemas streams one SchemaData message per registered type,
// endpoint, and topic on GetAllSchemaDataTopic — the "send_all_schemas"
// sender operation spec.md 4.4 item 3 lists — then returns the totals
// GetAllSchemasEndpoint replies with, including how many of those
// streamed messages failed to serialize or send.
func (d *Dispatcher) sendAllSchemas(ctx context.Context, s *Sender) icd.SchemaTotals {
	topicKey := wirekey.NewVarKey8(icd.GetAllSchemaDataTopic.Key)
	var fails uint32

	publish := func(sd icd.SchemaData) {
		body, err := d.Codec.Marshal(sd)
		if err != nil {
			fails++
			return
		}
		if err := s.PublishTopic(ctx, topicKey, d.SeqWidth, body); err != nil {
			fails++
		}
	}

	types := d.Map.AllTypes()
	for _, n := range types {
		publish(icd.SchemaData{Kind: icd.SchemaDataKindType, TypeName: n.Name})
	}
	for _, e := range d.Map.Endpoints {
		publish(icd.SchemaData{Kind: icd.SchemaDataKindEndpoint, EndpointPath: e.Path, RequestKey: e.ReqKey, ResponseKey: e.RespKey})
	}
	for _, t := range d.Map.Topics {
		publish(icd.SchemaData{Kind: icd.SchemaDataKindTopic, TopicPath: t.Path, TopicKey: t.Key, TopicDirection: t.Direction})
	}

	return icd.SchemaTotals{
		Types:          uint32(len(types)),
		Endpoints:      uint32(len(d.Map.Endpoints)),
		Topics:         uint32(len(d.Map.Topics)),
		SerializeFails: fails,
	}
}

// Finalize negotiates the minimum key width across every registered key
// and builds the folded lookup table the run loop dispatches against. It
// returns false if even 8-byte keys collide (spec.md 4.1).
func (d *Dispatcher) Finalize() bool {
	if !d.Map.Finalize() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.final = make(map[string]*handler, len(d.pending))
	for full, h := range d.pending {
		var k wirekey.Key
		copy(k[:], full)
		folded := wirekey.NewVarKey8(k).ShrinkTo(d.Map.MinKeyLen)
		d.final[foldedKeyString(folded)] = h
	}
	d.finalize = true
	return true
}

func (d *Dispatcher) lookup(vk wirekey.VarKey) (*handler, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.final[foldedKeyString(vk)]
	return h, ok
}

// Run drives the receive loop for one connection until the receiver
// reports a closed connection or ctx is cancelled, and returns that error.
// Oversize frames and other receive errors are logged and skipped.
// Protocol failures (short header, key too small, unknown key, spawn
// failure, deser/ser failure) are reported on the wire error key and the
// loop continues. Errors returned by sends are not inspected: a failing
// transmit side, even a closed or timed-out one, does not end the loop.
func (d *Dispatcher) Run(ctx context.Context, rx wire.Rx, tx wire.Tx) error {
	if !d.finalize {
		panic("dispatch: Run called before Finalize")
	}
	if err := tx.WaitConnection(ctx); err != nil {
		return err
	}

	sender := NewSender(tx, d.Map.MinKeyLen)
	d.mu.Lock()
	d.sender = sender
	d.mu.Unlock()
	buf := make([]byte, d.MaxFrame)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := rx.Receive(ctx, buf)
		if err != nil {
			switch wire.AsRxKind(err) {
			case wire.RxConnectionClosed:
				return err
			case wire.RxMessageTooLarge:
				minilog.Debug("dispatch: oversize frame dropped: %v", err)
				continue
			default:
				minilog.Debug("dispatch: receive error: %v", err)
				continue
			}
		}
		d.metrics.framesReceived.Inc()

		hdr, body, ok := wireheader.TakeFromSlice(frame)
		if !ok {
			_ = sender.SendWireError(ctx, icd.WireError{Kind: icd.ErrFrameTooShort, Len: uint32(len(frame))}, wirekey.NewVarSeq1(0), d.Codec)
			continue
		}

		if widthRank(hdr.Key.Kind()) < widthRank(d.Map.MinKeyLen) {
			_ = sender.SendWireError(ctx, icd.WireError{Kind: icd.ErrKeyTooSmall}, hdr.SeqNo, d.Codec)
			continue
		}

		h, found := d.lookup(hdr.Key.ShrinkTo(d.Map.MinKeyLen))
		if !found {
			d.metrics.unknownKey.Inc()
			_ = sender.SendWireError(ctx, icd.WireError{Kind: icd.ErrUnknownKey}, hdr.SeqNo, d.Codec)
			continue
		}

		if h.spawn {
			if d.Spawner == nil {
				_ = sender.SendWireError(ctx, icd.WireError{Kind: icd.ErrFailedToSpawn}, hdr.SeqNo, d.Codec)
				continue
			}
			hdrCopy, bodyCopy := hdr, append([]byte(nil), body...)
			if err := d.Spawner.Spawn(func(spawnCtx context.Context) {
				h.invoke(spawnCtx, sender, hdrCopy, bodyCopy)
			}); err != nil {
				d.metrics.spawnFailed.Inc()
				_ = sender.SendWireError(ctx, icd.WireError{Kind: icd.ErrFailedToSpawn}, hdr.SeqNo, d.Codec)
			}
			continue
		}

		d.metrics.framesDispatched.Inc()
		h.invoke(ctx, sender, hdr, body)
	}
}

// Publish sends a one-way topic message using the connection's negotiated
// Sender, safe to call concurrently with Run's receive loop — e.g. from a
// heartbeat goroutine started alongside Run. Returns errDispatcherNotRunning
// until Run's WaitConnection call has returned successfully.
func (d *Dispatcher) Publish(ctx context.Context, topic icd.Topic, body []byte) error {
	d.mu.Lock()
	s := d.sender
	d.mu.Unlock()
	if s == nil {
		return errDispatcherNotRunning
	}
	return s.PublishTopic(ctx, wirekey.NewVarKey8(topic.Key), d.SeqWidth, body)
}

func widthRank(w wirekey.Width) int {
	switch w {
	case wirekey.Width1:
		return 1
	case wirekey.Width2:
		return 2
	case wirekey.Width4:
		return 4
	default:
		return 8
	}
}
