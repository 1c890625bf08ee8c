package main

import (
	"errors"
	"fmt"

	persistent "github.com/kovalenko-tech/talker-persistent"
)

func main() {
	if err := persistent.InitializeStores("./data", "app_logs"); err != nil {
		panic(err)
	}

	history, err := persistent.NewBuilder("app_logs").
		SavePath("./logs").
		MaxCapacity(100).
		BufferSize(10).
		FlushOnError(true).
		Build()
	if err != nil {
		panic(err)
	}
	defer history.Dispose()

	history.Write(persistent.NewRecord("app_logs", persistent.LevelInfo, "startup", "service started"))
	history.Write(persistent.NewRecord("app_logs", persistent.LevelDebug, "config", "loaded 12 settings"))

	rec := persistent.NewRecord("app_logs", persistent.LevelError, "db", "connection failed")
	rec.ErrorValue = errors.New("dial tcp 127.0.0.1:5432: connection refused")
	history.Write(rec) // error level flushes the buffer immediately

	for _, r := range history.History() {
		fmt.Printf("%s [%s] %s\n", r.Time.Format("15:04:05"), r.Title, r.Message)
	}
}
