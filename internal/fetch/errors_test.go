package fetch

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

func TestClassify_StatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status    int
		class     Class
		retryable bool
	}{
		{429, ClassRateLimited, true},
		{404, ClassNotFound, false},
		{403, ClassForbidden, false},
		{406, ClassForbidden, false},
		{500, ClassUpstream5xx, true},
		{503, ClassUpstream5xx, true},
		{410, ClassPermanentOther, false},
		{451, ClassPermanentOther, false},
	}
	for _, tc := range cases {
		fe := classify("https://example.com/a", tc.status, nil, false)
		require.Equal(t, tc.class, fe.Class, "status %d", tc.status)
		require.Equal(t, tc.retryable, fe.Retryable(), "status %d", tc.status)
	}
}

func TestClassify_NetworkErrors(t *testing.T) {
	t.Parallel()

	netErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}

	direct := classify("https://example.com/a", 0, netErr, false)
	require.Equal(t, ClassTransientNetwork, direct.Class)
	require.True(t, direct.Retryable())

	proxied := classify("https://example.com/a", 0, netErr, true)
	require.Equal(t, ClassProxyFailure, proxied.Class)
	require.True(t, proxied.Retryable())
}

func TestErrorKind_Mapping(t *testing.T) {
	t.Parallel()

	require.Equal(t, crawl.KindNetworkTransient,
		classify("u", 503, nil, false).Kind())
	require.Equal(t, crawl.KindNetworkPermanent,
		classify("u", 404, nil, false).Kind())
}
