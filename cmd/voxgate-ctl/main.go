package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"voxgate/internal/ipc"
	"voxgate/pkg/protocol"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

type asker func(query string) (string, error)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket of the running voxgate")
	url := cli.StringP("url", "u", "", "Websocket url, e.g. ws://127.0.0.1:5000/ws; used instead of the socket")
	timeout := cli.DurationP("timeout", "t", 30*time.Second, "Reply timeout")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	ask := func(q string) (string, error) { return ipc.SendQuery(*socket, q, *timeout) }
	if *url != "" {
		web, err := protocol.NewWebSocket(*url, 3, *timeout)
		if err != nil {
			fmt.Println("voxgate not reachable:", err)
			os.Exit(1)
		}
		defer web.Close()
		ask = web.Ask
	}

	if cli.NArg() > 0 {
		if !run(ask, strings.Join(cli.Args(), " ")) {
			os.Exit(1)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		run(ask, line)
	}
}

func run(ask asker, query string) bool {
	reply, err := ask(query)
	if err != nil {
		fmt.Println("voxgate:", err)
		return false
	}
	fmt.Println(reply)
	return true
}
