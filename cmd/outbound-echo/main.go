// Command outbound-echo serves a streamed text response through the
// outbound pipeline on every connection. The inbound request head is
// drained without being interpreted; this demo has no routing or parsing.
package main

import (
	"context"
	"flag"
	"log"
	"net"

	"github.com/pion/logging"

	"dqx0.com/go/httpcore/http1"
	"dqx0.com/go/httpcore/outbound"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("listening on %s", ln.Addr())
	lf := logging.NewDefaultLoggerFactory()
	for {
		c, err := ln.Accept()
		if err != nil {
			log.Fatal(err)
		}
		go serve(c, lf)
	}
}

func serve(c net.Conn, lf logging.LoggerFactory) {
	defer c.Close()
	if !drainHead(c) {
		return
	}
	conn := http1.NewConn(c, http1.ConnConfig{LoggerFactory: lf})
	res := http1.NewResponse(conn)
	res.Header.Set("Content-Type", "text/plain; charset=utf-8")
	res.KeepAlive = false

	ctx := context.Background()
	ex := outbound.New(res,
		outbound.WithTarget("/echo"),
		outbound.WithLoggerFactory(lf))
	if err := ex.SendText(outbound.Text("hello", " from", " httpcore\n"), nil).Do(ctx); err != nil {
		log.Printf("send: %v", err)
		return
	}
	if err := res.Close(ctx); err != nil {
		log.Printf("finish: %v", err)
	}
	_ = conn.Close()
}

// drainHead reads and discards bytes up to the end of the request head
// (CRLFCRLF). It does not parse anything.
func drainHead(c net.Conn) bool {
	buf := make([]byte, 1)
	seq := 0
	for seq < 4 {
		if _, err := c.Read(buf); err != nil {
			return false
		}
		switch buf[0] {
		case '\r':
			if seq == 0 || seq == 2 {
				seq++
			} else {
				seq = 1
			}
		case '\n':
			if seq == 1 || seq == 3 {
				seq++
			} else {
				seq = 0
			}
		default:
			seq = 0
		}
	}
	return true
}
