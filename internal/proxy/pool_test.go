package proxy

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolPutTakeExpired(t *testing.T) {
	p := newPool()
	conn := &net.UDPConn{}
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9}

	old := pendingQuery{clientAddr: addr, issueTime: time.Now().Add(-time.Hour)}
	p.put(conn, old)

	assert.Equal(t, 1, p.len())

	expired := p.expired(time.Now())
	require.Len(t, expired, 1)
	assert.Equal(t, 0, p.len())
}

func TestPoolTakeRemovesEntry(t *testing.T) {
	p := newPool()
	conn := &net.UDPConn{}
	q := pendingQuery{clientAddr: &net.UDPAddr{}, issueTime: time.Now()}
	p.put(conn, q)

	got, ok := p.take(conn)
	require.True(t, ok)
	assert.Equal(t, q.clientAddr, got.clientAddr)

	_, ok = p.take(conn)
	assert.False(t, ok)
}

func TestFreePoolPushTakeDrain(t *testing.T) {
	var f freePool
	_, ok := f.take()
	assert.False(t, ok)

	c1 := &net.UDPConn{}
	c2 := &net.UDPConn{}
	f.push(c1)
	f.push(c2)

	got, ok := f.take()
	require.True(t, ok)
	assert.Equal(t, c2, got)

	n := f.drain()
	assert.Equal(t, 1, n)
	assert.Empty(t, f.conns)
}
