package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sandia-minimega/icdrpc/v2/pkg/codec"
	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/transport/inproc"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wireheader"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

func buildRequest(t *testing.T, key wirekey.Key, seq uint32, body []byte) []byte {
	t.Helper()
	h := wireheader.VarHeader{Key: wirekey.NewVarKey8(key), SeqNo: wirekey.NewVarSeq4(seq)}
	buf := make([]byte, h.EncodedLen())
	written, _, ok := h.WriteToSlice(buf)
	require.True(t, ok)
	return append(append([]byte(nil), written...), body...)
}

func newRunningDispatcher(t *testing.T, configure func(d *Dispatcher)) (client *inproc.Pipe, done <-chan error) {
	t.Helper()
	m := &icd.DeviceMap{}
	d := New(m, nil)
	d.SeqWidth = wirekey.Width4
	configure(d)
	d.RegisterStandard()
	require.True(t, d.Finalize())

	serverEnd, clientEnd := inproc.NewPipe(8)
	errc := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errc <- d.Run(ctx, serverEnd, serverEnd)
	}()
	return clientEnd, errc
}

func TestPingEcho(t *testing.T) {
	client, _ := newRunningDispatcher(t, func(d *Dispatcher) {})

	var c codec.GobCodec
	body, err := c.Marshal(uint32(42))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, client.SendRaw(ctx, buildRequest(t, icd.PingEndpoint.ReqKey, 7, body)))

	resp := make([]byte, 256)
	frame, err := client.Receive(ctx, resp)
	require.NoError(t, err)

	hdr, respBody, ok := wireheader.TakeFromSlice(frame)
	require.True(t, ok)
	require.Equal(t, uint32(7), hdr.SeqNo.Uint32())

	var got uint32
	require.NoError(t, c.Unmarshal(respBody, &got))
	require.Equal(t, uint32(42), got)
}

func TestUnknownKeyProducesWireError(t *testing.T) {
	var disp *Dispatcher
	client, _ := newRunningDispatcher(t, func(d *Dispatcher) { disp = d })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var bogus wirekey.Key
	for i := range bogus {
		bogus[i] = 0xFF
	}
	require.NoError(t, client.SendRaw(ctx, buildRequest(t, bogus, 1, nil)))

	resp := make([]byte, 256)
	frame, err := client.Receive(ctx, resp)
	require.NoError(t, err)

	hdr, body, ok := wireheader.TakeFromSlice(frame)
	require.True(t, ok)
	// The Sender narrows every outgoing key to the negotiated width.
	require.Equal(t, disp.Map.MinKeyLen, hdr.Key.Kind())
	require.Equal(t, wirekey.NewVarKey8(icd.ErrorKey).ShrinkTo(disp.Map.MinKeyLen), hdr.Key)

	var we icd.WireError
	var c codec.GobCodec
	require.NoError(t, c.Unmarshal(body, &we))
	require.Equal(t, icd.ErrUnknownKey, we.Kind)
}

func TestGetAllSchemasStreamsSchemaDataThenTotals(t *testing.T) {
	client, _ := newRunningDispatcher(t, func(d *Dispatcher) {})

	var c codec.GobCodec
	body, err := c.Marshal(struct{}{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.SendRaw(ctx, buildRequest(t, icd.GetAllSchemasEndpoint.ReqKey, 9, body)))

	topicKey := wirekey.NewVarKey8(icd.GetAllSchemaDataTopic.Key)
	respKey := wirekey.NewVarKey8(icd.GetAllSchemasEndpoint.RespKey)

	var streamed int
	var totals icd.SchemaTotals
	gotTotals := false
	for !gotTotals {
		resp := make([]byte, 512)
		frame, err := client.Receive(ctx, resp)
		require.NoError(t, err)

		hdr, respBody, ok := wireheader.TakeFromSlice(frame)
		require.True(t, ok)

		switch {
		case topicKey.Equal(hdr.Key):
			var sd icd.SchemaData
			require.NoError(t, c.Unmarshal(respBody, &sd))
			streamed++
		case respKey.Equal(hdr.Key):
			require.NoError(t, c.Unmarshal(respBody, &totals))
			gotTotals = true
		default:
			t.Fatalf("frame matched neither the schema data topic nor the reply key: %+v", hdr)
		}
	}

	require.Equal(t, uint32(0), totals.SerializeFails)
	require.Equal(t, uint32(2), totals.Endpoints) // Ping, GetAllSchemas
	require.Equal(t, uint32(2), totals.Topics)    // GetAllSchemaData, Logging
	require.Equal(t, int(totals.Types+totals.Endpoints+totals.Topics), streamed)
}

func TestCustomBlockingEndpoint(t *testing.T) {
	type Req struct{ N uint32 }
	type Resp struct{ Doubled uint32 }
	ep := icd.NewEndpoint("test/double", Req{}, Resp{})

	client, _ := newRunningDispatcher(t, func(d *Dispatcher) {
		Bind(d, ep, func(ctx context.Context, req Req) Resp {
			return Resp{Doubled: req.N * 2}
		})
	})

	var c codec.GobCodec
	body, err := c.Marshal(Req{N: 21})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, client.SendRaw(ctx, buildRequest(t, ep.ReqKey, 3, body)))

	resp := make([]byte, 256)
	frame, err := client.Receive(ctx, resp)
	require.NoError(t, err)

	_, respBody, ok := wireheader.TakeFromSlice(frame)
	require.True(t, ok)

	var got Resp
	require.NoError(t, c.Unmarshal(respBody, &got))
	require.Equal(t, uint32(42), got.Doubled)
}

func TestTopicDeserFailureIsDroppedSilently(t *testing.T) {
	type Msg struct{ N uint32 }
	topic := icd.NewTopic("test/malformed-topic", icd.ToServer, Msg{})

	received := make(chan Msg, 1)
	var disp *Dispatcher
	client, _ := newRunningDispatcher(t, func(d *Dispatcher) {
		disp = d
		BindTopic(d, topic, func(ctx context.Context, msg Msg) {
			received <- msg
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Garbage body: fails to gob-decode into Msg.
	require.NoError(t, client.SendRaw(ctx, buildRequest(t, topic.Key, 0, []byte{0xFF, 0xFF, 0xFF})))

	// Follow it with a well-formed Ping so we have something to wait on;
	// if the malformed topic body had produced an error frame, it would
	// arrive first and this Unmarshal/Equal pair would fail instead.
	var c codec.GobCodec
	body, err := c.Marshal(uint32(5))
	require.NoError(t, err)
	require.NoError(t, client.SendRaw(ctx, buildRequest(t, icd.PingEndpoint.ReqKey, 1, body)))

	resp := make([]byte, 256)
	frame, err := client.Receive(ctx, resp)
	require.NoError(t, err)

	hdr, respBody, ok := wireheader.TakeFromSlice(frame)
	require.True(t, ok)
	require.Equal(t, disp.Map.MinKeyLen, hdr.Key.Kind())
	require.Equal(t, wirekey.NewVarKey8(icd.PingEndpoint.RespKey).ShrinkTo(disp.Map.MinKeyLen), hdr.Key, "malformed topic body must not have produced a wire error frame ahead of the ping reply")

	var got uint32
	require.NoError(t, c.Unmarshal(respBody, &got))
	require.Equal(t, uint32(5), got)

	select {
	case <-received:
		t.Fatal("handler must not run on a malformed topic body")
	default:
	}
}
