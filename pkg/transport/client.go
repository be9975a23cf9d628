// Package transport dials the TCP source carrying a raw EDI byte stream
// and feeds it to a decode pipeline, reconnecting on transient I/O
// errors until its context is canceled.
package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// Sink receives raw bytes read from the wire. *edi.DabSource satisfies
// this by its Feed method.
type Sink interface {
	Feed(data []byte)
}

// Client dials addr and streams bytes into a Sink until its context is
// canceled.
type Client struct {
	addr string
	sink Sink
	log  *logger.Logger

	dialTimeout  time.Duration
	readTimeout  time.Duration
	reconnectGap time.Duration
}

// NewClient creates a Client dialing addr and feeding data to sink.
func NewClient(addr string, sink Sink, log *logger.Logger) *Client {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &Client{
		addr:         addr,
		sink:         sink,
		log:          log.WithComponent("transport.client"),
		dialTimeout:  5 * time.Second,
		readTimeout:  100 * time.Millisecond,
		reconnectGap: 2 * time.Second,
	}
}

// Start connects to addr and runs the read loop until ctx is canceled.
// Every dial or read failure, the far end closing the connection included,
// is treated as transient: Start logs it and reconnects after reconnectGap,
// so a single long-lived Client survives the far end restarting. It returns
// only once ctx is canceled, with ctx.Err().
func (c *Client) Start(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.log.Warn("connection lost, reconnecting",
				logger.Error(err), logger.String("addr", c.addr))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectGap):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	c.log.Info("connected", logger.String("addr", c.addr))

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			c.sink.Feed(buf[:n])
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return fmt.Errorf("read: %w", err)
		}
	}
}
