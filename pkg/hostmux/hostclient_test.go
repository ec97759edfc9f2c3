package hostmux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sandia-minimega/icdrpc/v2/pkg/codec"
	"github.com/sandia-minimega/icdrpc/v2/pkg/config"
	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/transport/inproc"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wireheader"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

type echoReq struct{ N uint32 }
type echoResp struct{ N uint32 }

var echoEndpoint = icd.NewEndpoint("test/echo", echoReq{}, echoResp{})

// fakeDevice answers every request on echoEndpoint by doubling N, and
// otherwise just drains frames, giving tests a deterministic peer
// without pulling in pkg/dispatch. It replies with its response key
// narrowed to Width1, the way a real Sender narrows every outgoing key
// to the connection's negotiated MinKeyLen, so the test actually
// exercises wait-map matching across mismatched widths rather than the
// Width8-to-Width8 case Call always registers at.
func fakeDevice(t *testing.T, deviceEnd *inproc.Pipe) {
	t.Helper()
	var c codec.GobCodec
	go func() {
		buf := make([]byte, 4096)
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			frame, err := deviceEnd.Receive(ctx, buf)
			cancel()
			if err != nil {
				return
			}
			hdr, body, ok := wireheader.TakeFromSlice(frame)
			if !ok {
				continue
			}
			if !wirekey.NewVarKey8(echoEndpoint.ReqKey).Equal(hdr.Key) {
				continue
			}
			var req echoReq
			require.NoError(t, c.Unmarshal(body, &req))
			respBody, err := c.Marshal(echoResp{N: req.N * 2})
			require.NoError(t, err)

			narrowed := wirekey.NewVarKey8(echoEndpoint.RespKey).ShrinkTo(wirekey.Width1)
			respHdr := wireheader.VarHeader{Key: narrowed, SeqNo: hdr.SeqNo}
			hb := make([]byte, respHdr.EncodedLen())
			written, _, ok := respHdr.WriteToSlice(hb)
			require.True(t, ok)

			sendCtx, cancel2 := context.WithTimeout(context.Background(), time.Second)
			_ = deviceEnd.SendRaw(sendCtx, append(append([]byte(nil), written...), respBody...))
			cancel2()
		}
	}()
}

func TestCallRoundTrip(t *testing.T) {
	hostEnd, deviceEnd := inproc.NewPipe(8)
	fakeDevice(t, deviceEnd)

	hc := NewHostClient(hostEnd, hostEnd, config.DefaultHostClientConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hc.Run(ctx)

	resp, err := Call[echoReq, echoResp](context.Background(), hc, echoEndpoint, echoReq{N: 21})
	require.NoError(t, err)
	require.Equal(t, uint32(42), resp.N)
}

func TestCallReturnsClosedAfterStop(t *testing.T) {
	hostEnd, _ := inproc.NewPipe(8)
	hc := NewHostClient(hostEnd, hostEnd, config.DefaultHostClientConfig())
	hc.stopper.Stop()
	hc.waits.Close()

	_, err := Call[echoReq, echoResp](context.Background(), hc, echoEndpoint, echoReq{N: 1})
	require.Error(t, err)
	he, ok := err.(*HostErr)
	require.True(t, ok)
	require.Equal(t, HostErrClosed, he.Kind)
}

func TestExclusiveSubscriptionReplacementClosesPrior(t *testing.T) {
	hostEnd, _ := inproc.NewPipe(8)
	hc := NewHostClient(hostEnd, hostEnd, config.DefaultHostClientConfig())

	topic := icd.NewTopic("test/topic", icd.ToClient, echoResp{})
	first := hc.Subscribe(topic, 2)
	second := hc.Subscribe(topic, 2)

	_, open := <-first.C()
	require.False(t, open, "replaced exclusive subscription must observe closed channel")

	require.NotNil(t, second)
}

func TestBroadcastCoexistsWithExclusive(t *testing.T) {
	hostEnd, _ := inproc.NewPipe(8)
	hc := NewHostClient(hostEnd, hostEnd, config.DefaultHostClientConfig())

	topic := icd.NewTopic("test/broadcast", icd.ToClient, echoResp{})
	excl := hc.Subscribe(topic, 4)
	b1 := hc.SubscribeMulti(topic, 4)
	b2 := hc.SubscribeMulti(topic, 4)

	body := []byte("payload")
	for _, full := range hc.hub.Keys() {
		if wirekey.NewVarKey8(full).Equal(wirekey.NewVarKey8(topic.Key)) {
			hc.hub.Publish(full, body)
		}
	}
	hc.excl.deliver(wirekey.NewVarKey8(topic.Key), body, 0)

	require.Equal(t, body, <-excl.C())
	require.Equal(t, body, <-b1.C())
	require.Equal(t, body, <-b2.C())
}
