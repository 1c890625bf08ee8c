package main

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	persistent "github.com/kovalenko-tech/talker-persistent"
	"github.com/kovalenko-tech/talker-persistent/compat"
)

func main() {
	if err := persistent.InitializeStores("/var/lib/myserver/history", "http_logs"); err != nil {
		panic(err)
	}
	defer persistent.DisposeStores()

	history, err := persistent.NewBuilder("http_logs").
		SavePath("/var/log/fasthttp").
		SplitByDay(true).
		Retention(persistent.RetentionOneWeek).
		BufferSize(64).
		Build()
	if err != nil {
		panic(err)
	}
	defer history.Dispose()

	// Create fasthttp adapter with level detection from message content
	fasthttpAdapter := compat.NewFastHTTPAdapter(
		history,
		compat.WithDefaultLevel(persistent.LevelInfo),
	)

	server := &fasthttp.Server{
		Handler: requestHandler,
		Logger:  fasthttpAdapter,

		Name:         "MyServer",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := server.ListenAndServe(":8080"); err != nil {
		panic(err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	fmt.Fprintf(ctx, "hello from %s", ctx.Path())
}
