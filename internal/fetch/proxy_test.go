package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

func twoProxyPool() *Pool {
	return NewPool([]crawl.ProxyConfig{
		{Host: "proxy-a.example.com", Port: 8080, Username: "u", Password: "p"},
		{Host: "proxy-b.example.com", Port: 8080},
	})
}

func TestPool_EmptyMeansDirect(t *testing.T) {
	t.Parallel()

	pool := NewPool(nil)
	proxy, err := pool.Acquire()
	require.NoError(t, err)
	require.Nil(t, proxy)
}

func TestProxyURL_EmbedsCredentials(t *testing.T) {
	t.Parallel()

	pool := twoProxyPool()
	proxy, err := pool.Acquire()
	require.NoError(t, err)
	require.Equal(t, "http://u:p@proxy-a.example.com:8080", proxy.URL().String())
}

func TestPool_RoundRobin(t *testing.T) {
	t.Parallel()

	pool := twoProxyPool()
	first, err := pool.Acquire()
	require.NoError(t, err)
	second, err := pool.Acquire()
	require.NoError(t, err)
	require.NotEqual(t, first.URL().Host, second.URL().Host)
}

func TestPool_QuarantineAfterThreeConsecutiveFailures(t *testing.T) {
	t.Parallel()

	pool := twoProxyPool()
	a, err := pool.Acquire()
	require.NoError(t, err)

	a.ReportFailure()
	a.ReportFailure()
	require.Equal(t, 0, pool.QuarantinedCount())
	a.ReportFailure()
	require.Equal(t, 1, pool.QuarantinedCount())

	// The healthy proxy keeps serving; the pool is not exhausted.
	for i := 0; i < 4; i++ {
		proxy, err := pool.Acquire()
		require.NoError(t, err)
		require.Equal(t, "proxy-b.example.com:8080", proxy.URL().Host)
	}
}

func TestPool_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	pool := twoProxyPool()
	a, err := pool.Acquire()
	require.NoError(t, err)

	a.ReportFailure()
	a.ReportFailure()
	a.ReportSuccess()
	a.ReportFailure()
	a.ReportFailure()
	require.Equal(t, 0, pool.QuarantinedCount())
}

func TestPool_ExhaustedWhenAllQuarantined(t *testing.T) {
	t.Parallel()

	pool := twoProxyPool()
	for i := 0; i < 2; i++ {
		proxy, err := pool.Acquire()
		require.NoError(t, err)
		proxy.ReportFailure()
		proxy.ReportFailure()
		proxy.ReportFailure()
	}
	require.Equal(t, 2, pool.QuarantinedCount())

	_, err := pool.Acquire()
	require.Error(t, err)
	require.Equal(t, crawl.KindProxyExhausted, crawl.KindOf(err))
}
