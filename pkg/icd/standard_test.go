package icd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandia-minimega/icdrpc/v2/pkg/schema"
)

func TestStandardEndpointsHaveStableKeys(t *testing.T) {
	again := NewEndpoint(PingPath, uint32(0), uint32(0))
	require.Equal(t, PingEndpoint.ReqKey, again.ReqKey)
	require.Equal(t, PingEndpoint.RespKey, again.RespKey)
	require.NotEqual(t, PingEndpoint.ReqKey, GetAllSchemasEndpoint.ReqKey)
}

func TestErrorKeyDoesNotCollideWithPing(t *testing.T) {
	require.NotEqual(t, ErrorKey, PingEndpoint.ReqKey)
	require.NotEqual(t, ErrorKey, PingEndpoint.RespKey)
}

func TestWireErrorMessages(t *testing.T) {
	cases := []WireError{
		{Kind: ErrFrameTooLong, Len: 300, Max: 256},
		{Kind: ErrFrameTooShort, Len: 1},
		{Kind: ErrDeserFailed},
		{Kind: ErrSerFailed},
		{Kind: ErrUnknownKey},
		{Kind: ErrFailedToSpawn},
		{Kind: ErrKeyTooSmall},
	}
	for _, c := range cases {
		require.NotEmpty(t, c.Error())
	}
}

func TestLoggingTopicIsToClientString(t *testing.T) {
	require.Equal(t, ToClient, LoggingTopic.Direction)
	require.Equal(t, schema.KindString, LoggingTopic.Type.Kind)
}
