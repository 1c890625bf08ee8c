package main

import (
	"github.com/panjf2000/gnet/v2"

	persistent "github.com/kovalenko-tech/talker-persistent"
	"github.com/kovalenko-tech/talker-persistent/compat"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	if err := persistent.InitializeStores("/var/lib/gnet-echo/history", "gnet_logs"); err != nil {
		panic(err)
	}
	defer persistent.DisposeStores()

	history := persistent.New("gnet_logs", "/var/log/gnet", nil)
	defer history.Dispose()

	gnetAdapter := compat.NewGnetAdapter(history)

	// Configure gnet server with the adapter: server-internal logs end up in
	// the same bounded history and rotated files as application records
	err := gnet.Run(
		&echoServer{},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		panic(err)
	}
}
