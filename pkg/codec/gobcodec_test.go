package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	A uint32
	B string
}

func TestGobCodecRoundTrip(t *testing.T) {
	var c GobCodec
	in := sample{A: 7, B: "hello"}
	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, c.Unmarshal(data, &out))
	require.Equal(t, in, out)
}
