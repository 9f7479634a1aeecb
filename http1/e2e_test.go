package http1

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"

	"dqx0.com/go/httpcore/outbound"
)

// bridgePair returns a connected conn pair with a pump goroutine moving
// bytes across the bridge until the test ends.
func bridgePair(t *testing.T) *test.Bridge {
	t.Helper()
	br := test.NewBridge()
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				br.Tick()
				time.Sleep(100 * time.Microsecond)
			}
		}
	}()
	t.Cleanup(func() { close(stop) })
	return br
}

// readUntil collects bytes from the peer until the wire contains marker.
func readUntil(t *testing.T, br *test.Bridge, marker string) string {
	t.Helper()
	peer := br.GetConn1()
	var mu sync.Mutex
	var sb strings.Builder
	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := peer.Read(buf)
			if n > 0 {
				mu.Lock()
				sb.Write(buf[:n])
				mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		wire := sb.String()
		mu.Unlock()
		if strings.Contains(wire, marker) {
			return wire
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q, got %q", marker, wire)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOutboundOverBridge(t *testing.T) {
	br := bridgePair(t)
	conn := NewConn(br.GetConn0(), ConnConfig{})
	defer conn.Close()
	res := NewResponse(conn)
	res.Header.Set("Content-Type", "text/plain")

	ex := outbound.New(res, outbound.WithMethod("GET"), outbound.WithTarget("/wire"))
	ctx := context.Background()
	if err := ex.SendText(outbound.Text("across", " the", " wire"), nil).Do(ctx); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := res.Close(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}

	wire := readUntil(t, br, "0\r\n\r\n")
	if !strings.HasPrefix(wire, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("wire = %q", wire)
	}
	head, body, ok := strings.Cut(wire, "\r\n\r\n")
	if !ok {
		t.Fatalf("no head/body split in %q", wire)
	}
	if !strings.Contains(head, "Transfer-Encoding: chunked") {
		t.Fatalf("head = %q", head)
	}
	want := "6\r\nacross\r\n4\r\n the\r\n5\r\n wire\r\n0\r\n\r\n"
	if body != want {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestConcurrentSendsOverBridge(t *testing.T) {
	br := bridgePair(t)
	conn := NewConn(br.GetConn0(), ConnConfig{})
	defer conn.Close()
	res := NewResponse(conn)

	ex := outbound.New(res, outbound.WithTarget("/race"))
	ctx := context.Background()
	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := []byte(fmt.Sprintf("part%d", i))
			if err := ex.Send(outbound.Buffers(payload)).Do(ctx); err != nil {
				t.Errorf("send %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	if err := res.Close(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}

	wire := readUntil(t, br, "0\r\n\r\n")
	headEnd := strings.Index(wire, "\r\n\r\n")
	if headEnd < 0 {
		t.Fatalf("no header terminator in %q", wire)
	}
	if i := strings.Index(wire, "part"); i >= 0 && i < headEnd {
		t.Fatalf("body bytes before end of head: %q", wire)
	}
	for i := 0; i < n; i++ {
		if !strings.Contains(wire, fmt.Sprintf("part%d", i)) {
			t.Fatalf("missing part%d in %q", i, wire)
		}
	}
}
