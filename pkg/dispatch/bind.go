package dispatch

import (
	"context"

	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wireheader"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// Bind registers a blocking request/response handler for ep. Go has no
// macro to generate one dispatch arm per registered type the way the
// original implementation does at compile time, so the type parameters
// here are resolved at the call site instead: every Bind call is its own
// instantiation, which is the closest idiomatic equivalent (spec.md 4.4,
// "blocking" flavor).
//
// fn has no error return: WireError is a closed protocol-error enum with
// no "application handler failed" variant (spec.md 4.6, 7), so an
// endpoint that can fail models that in its own Resp type instead of via
// Go's error return.
func Bind[Req any, Resp any](d *Dispatcher, ep icd.Endpoint, fn func(ctx context.Context, req Req) Resp) {
	d.Map.Endpoints = append(d.Map.Endpoints, ep)
	d.register(ep.ReqKey, &handler{invoke: requestInvoker(d, ep, fn)})
}

// BindSpawn registers a request/response handler that runs on the
// dispatcher's Spawner rather than inline in the receive loop, for
// handlers that may block for a while (spec.md 4.4, "spawn" flavor).
func BindSpawn[Req any, Resp any](d *Dispatcher, ep icd.Endpoint, fn func(ctx context.Context, req Req) Resp) {
	d.Map.Endpoints = append(d.Map.Endpoints, ep)
	d.register(ep.ReqKey, &handler{spawn: true, invoke: requestInvoker(d, ep, fn)})
}

// requestInvoker closes over fn's own [Req, Resp] instantiation, so the
// returned closure needs no further type parameters itself — it can be
// stored uniformly in handler.invoke alongside every other registered
// endpoint's closure.
func requestInvoker[Req any, Resp any](d *Dispatcher, ep icd.Endpoint, fn func(ctx context.Context, req Req) Resp) func(context.Context, *Sender, wireheader.VarHeader, []byte) {
	return func(ctx context.Context, s *Sender, hdr wireheader.VarHeader, body []byte) {
		var req Req
		if err := d.Codec.Unmarshal(body, &req); err != nil {
			d.metrics.deserFailed.Inc()
			_ = s.SendWireError(ctx, icd.WireError{Kind: icd.ErrDeserFailed}, hdr.SeqNo, d.Codec)
			return
		}

		resp := fn(ctx, req)

		out, err := d.Codec.Marshal(resp)
		if err != nil {
			d.metrics.serFailed.Inc()
			_ = s.SendWireError(ctx, icd.WireError{Kind: icd.ErrSerFailed}, hdr.SeqNo, d.Codec)
			return
		}

		_ = s.Send(ctx, wirekey.NewVarKey8(ep.RespKey), hdr.SeqNo, out)
	}
}

// BindTopic registers a handler for an incoming one-way message. There is
// no response to send and no requester to report a failure to, so unlike
// Bind/BindSpawn a topic deserialization failure is dropped silently
// rather than reported on the error key (spec.md 4.4 item 4: "Topic
// deserialization failures are silently dropped").
func BindTopic[Msg any](d *Dispatcher, topic icd.Topic, fn func(ctx context.Context, msg Msg)) {
	d.Map.Topics = append(d.Map.Topics, topic)
	d.register(topic.Key, &handler{invoke: func(ctx context.Context, s *Sender, hdr wireheader.VarHeader, body []byte) {
		var msg Msg
		if err := d.Codec.Unmarshal(body, &msg); err != nil {
			d.metrics.deserFailed.Inc()
			return
		}
		fn(ctx, msg)
	}})
}
