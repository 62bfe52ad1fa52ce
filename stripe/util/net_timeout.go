package util

import (
	"net"
	"time"

	"github.com/stripefs/stripefs/stripe/stats"
)

// Conn wraps a net.Conn and implements a "no activity timeout".
// Any activity (read or write) resets the deadline, so the connection
// only times out when there's no activity in either direction.
type Conn struct {
	net.Conn
	Timeout  time.Duration
	isClosed bool
}

func NewConn(c net.Conn, timeout time.Duration) *Conn {
	stats.ConnectionOpen()
	return &Conn{
		Conn:    c,
		Timeout: timeout,
	}
}

func (c *Conn) extendDeadline() error {
	if c.Timeout != 0 {
		return c.Conn.SetDeadline(time.Now().Add(c.Timeout))
	}
	return nil
}

func (c *Conn) Read(b []byte) (count int, e error) {
	if err := c.extendDeadline(); err != nil {
		return 0, err
	}
	count, e = c.Conn.Read(b)
	if e == nil {
		stats.BytesIn(int64(count))
	}
	return
}

func (c *Conn) Write(b []byte) (count int, e error) {
	if err := c.extendDeadline(); err != nil {
		return 0, err
	}
	count, e = c.Conn.Write(b)
	if e == nil {
		stats.BytesOut(int64(count))
	}
	return
}

func (c *Conn) Close() error {
	err := c.Conn.Close()
	if err == nil {
		if !c.isClosed {
			stats.ConnectionClose()
			c.isClosed = true
		}
	}
	return err
}
