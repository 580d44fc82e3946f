package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/txsociety/mentat/pkg/core"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestParseBoundDefaultsToIncluded(t *testing.T) {
	b, err := parseBound(&Bound{BlockId: &BlockId{Workchain: -1, Shard: 0x8000000000000000, Seqno: 5}})
	require.NoError(t, err)
	require.Equal(t, core.BoundIncluded, b.Type)
	require.NotNil(t, b.Block)
	require.Equal(t, uint32(5), b.Block.Seqno)

	b, err = parseBound(&Bound{Type: "EXCLUDED"})
	require.NoError(t, err)
	require.Equal(t, core.BoundExcluded, b.Type)

	_, err = parseBound(&Bound{Type: "SIDEWAYS"})
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	b, err = parseBound(nil)
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestParseOrder(t *testing.T) {
	for name, want := range map[string]core.Order{
		"":                core.OrderUnordered,
		"UNORDERED":       core.OrderUnordered,
		"FROM_NEW_TO_OLD": core.OrderFromNewToOld,
		"FROM_OLD_TO_NEW": core.OrderFromOldToNew,
	} {
		got, err := parseOrder(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := parseOrder("NEWEST")
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = parseListOrder("FROM_NEW_TO_OLD")
	require.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestMessageToWireTextVariant(t *testing.T) {
	text := "thanks"
	wire := messageToWire(core.Message{Text: &text, Body: []byte{1, 2, 3}})
	require.NotNil(t, wire.MsgData)
	require.Equal(t, "thanks", wire.MsgData.Text)
	require.Nil(t, wire.MsgData.Raw)

	wire = messageToWire(core.Message{Body: []byte{1, 2, 3}})
	require.NotNil(t, wire.MsgData.Raw)
	require.NotEmpty(t, wire.MsgData.Raw.Body)
	require.Empty(t, wire.MsgData.Text)
}

func TestStatusFromError(t *testing.T) {
	cases := map[error]codes.Code{
		core.ErrInvalidArgument:       codes.InvalidArgument,
		core.ErrNotFound:              codes.NotFound,
		core.ErrStaleBlock:            codes.FailedPrecondition,
		core.ErrUnavailable:           codes.Unavailable,
		context.Canceled:              codes.Canceled,
		context.DeadlineExceeded:      codes.DeadlineExceeded,
		errors.New("cosmic ray flip"): codes.Internal,
	}
	for err, code := range cases {
		require.Equal(t, code, status.Code(statusFromError(err)))
	}
	require.NoError(t, statusFromError(nil))
}

func TestCheckToken(t *testing.T) {
	withAuth := func(v string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", v))
	}

	require.True(t, checkToken(context.Background(), ""))
	require.True(t, checkToken(withAuth("Bearer sesame"), "sesame"))
	require.False(t, checkToken(withAuth("Bearer wrong"), "sesame"))
	require.False(t, checkToken(withAuth("Basic sesame"), "sesame"))
	require.False(t, checkToken(withAuth("sesame"), "sesame"))
	require.False(t, checkToken(context.Background(), "sesame"))
}
