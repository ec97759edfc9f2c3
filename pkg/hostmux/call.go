package hostmux

import (
	"context"

	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/schema"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// Call sends a request on ep and waits for either its typed response or a
// WireError, whichever arrives first (spec.md 4.5: "It creates two
// waiters: one for (seq, E::RESP_KEY) and one for (seq, ERROR_KEY),
// races them with select"). Go's lack of per-type compile-time dispatch
// arms means this is a free generic function rather than a method on a
// generated per-endpoint type, but the correlation logic is identical.
func Call[Req any, Resp any](ctx context.Context, hc *HostClient, ep icd.Endpoint, req Req) (Resp, error) {
	var zero Resp

	body, err := hc.codec.Marshal(req)
	if err != nil {
		return zero, &HostErr{Kind: HostErrCodec, Err: err}
	}

	seq := hc.retry.Next()
	header, varSeq := hc.buildHeader(ep.ReqKey, seq)

	respVarKey := wirekey.NewVarKey8(ep.RespKey)
	errVarKey := wirekey.NewVarKey8(wirekey.Key(schema.Digest(hc.cfg.ErrURIPath, schema.Of(icd.WireError{}))))

	respCh := hc.waits.Register(respVarKey, varSeq)
	if respCh == nil {
		return zero, &HostErr{Kind: HostErrClosed}
	}
	errCh := hc.waits.Register(errVarKey, varSeq)
	if errCh == nil {
		hc.waits.Cancel(respVarKey, varSeq)
		return zero, &HostErr{Kind: HostErrClosed}
	}

	if err := hc.enqueue(ctx, header, body); err != nil {
		hc.waits.Cancel(respVarKey, varSeq)
		hc.waits.Cancel(errVarKey, varSeq)
		return zero, &HostErr{Kind: HostErrClosed, Err: err}
	}
	hc.metrics.requestsSent.Inc()

	select {
	case body, ok := <-respCh:
		hc.waits.Cancel(errVarKey, varSeq)
		if !ok {
			hc.metrics.requestsFailed.Inc()
			return zero, &HostErr{Kind: HostErrClosed}
		}
		var resp Resp
		if err := hc.codec.Unmarshal(body, &resp); err != nil {
			hc.metrics.requestsFailed.Inc()
			return zero, &HostErr{Kind: HostErrBadResponse, Err: err}
		}
		return resp, nil

	case body, ok := <-errCh:
		hc.waits.Cancel(respVarKey, varSeq)
		hc.metrics.requestsFailed.Inc()
		if !ok {
			return zero, &HostErr{Kind: HostErrClosed}
		}
		var we icd.WireError
		if err := hc.codec.Unmarshal(body, &we); err != nil {
			return zero, &HostErr{Kind: HostErrBadResponse, Err: err}
		}
		return zero, &HostErr{Kind: HostErrWire, Wire: we}

	case <-hc.stopper.Done():
		hc.waits.Cancel(respVarKey, varSeq)
		hc.waits.Cancel(errVarKey, varSeq)
		hc.metrics.requestsFailed.Inc()
		return zero, &HostErr{Kind: HostErrClosed}

	case <-ctx.Done():
		hc.waits.Cancel(respVarKey, varSeq)
		hc.waits.Cancel(errVarKey, varSeq)
		return zero, ctx.Err()
	}
}
