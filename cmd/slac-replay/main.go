package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	cfgpkg "github.com/devdems/evse-plc/internal/config"
	"github.com/devdems/evse-plc/internal/logging"
	"github.com/devdems/evse-plc/internal/replay"
)

func main() {
	script := flag.String("script", "", "replay script (yaml)")
	level := flag.String("log-level", "warn", "log level")
	dump := flag.Bool("hex", false, "print outbound frames as hex")
	flag.Parse()
	if *script == "" {
		fmt.Fprintln(os.Stderr, "usage: slac-replay -script session.yaml [-hex] [-log-level debug]")
		os.Exit(2)
	}

	logger, err := logging.InitLogger(cfgpkg.LoggingConfig{Level: *level, Format: "console"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	s, err := replay.Load(*script)
	if err != nil {
		logger.Fatal("load script", zap.Error(err))
	}
	out, err := replay.Run(s, replay.Options{}, logger)
	if err != nil {
		logger.Fatal("replay", zap.Error(err))
	}

	for _, x := range out.Sent {
		fmt.Printf("%8s  %-24s %-22s %d bytes\n", x.At, x.State, x.Type, len(x.Frame))
		if *dump {
			fmt.Println(hex.EncodeToString(x.Frame))
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"status": out.Status, "reports": out.Reports, "modemResets": out.Resets, "droppedFrames": out.Dropped})
}
