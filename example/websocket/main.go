// Example: websocket — consume a live subscription over WebSocket with
// a lazy commit policy and a SQLite cursor.
//
// Usage:
//
//	ANCHOR_WS_URL=wss://stream.example.com/v1 go run ./example/websocket
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hedeqiang/anchor"
	"github.com/hedeqiang/anchor/checkpoint"
	"github.com/hedeqiang/anchor/cursor"
	"github.com/hedeqiang/anchor/event"
	mw "github.com/hedeqiang/anchor/middleware"
	"github.com/hedeqiang/anchor/retry"
	"github.com/hedeqiang/anchor/sink"
	"github.com/hedeqiang/anchor/stream"
	"github.com/hedeqiang/anchor/transport"
)

func main() {
	wsURL := os.Getenv("ANCHOR_WS_URL")
	if wsURL == "" {
		log.Fatal("ANCHOR_WS_URL environment variable is required")
	}

	ctx := context.Background()

	store, err := cursor.NewSQLite("./progress.db")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	cfg := transport.DefaultConfig()
	cfg.Reconnect = retry.Forever()
	cfg.BreakerThreshold = 20

	metrics := mw.NewMetrics()
	c := anchor.New(
		anchor.WithSource(transport.NewWebSocket(wsURL, cfg)),
		anchor.WithCursor(store),
		anchor.WithSink(sink.Func(func(_ context.Context, p event.Payload) error {
			fmt.Printf("committed key=%.16s bytes=%d\n", p.Key, len(p.Data))
			return nil
		})),
		// Rely on the server's progress signals; replay window on
		// crash is one progress interval.
		anchor.WithPolicy(checkpoint.OnProgressOnly()),
		anchor.WithMiddleware(metrics),
	)

	query := stream.Query{
		Expression: os.Getenv("ANCHOR_QUERY"),
		Origin:     stream.OriginLatest,
	}
	if err := c.Consume(ctx, "live", query); err != nil {
		log.Fatal(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	fmt.Printf("processed=%d dropped=%d\n", metrics.Processed(), metrics.Dropped())
}
