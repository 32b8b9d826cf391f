package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/client"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/config"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/port"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/service"

	"go.uber.org/zap"
)

// zari interprets utterances given as arguments, or one per line on stdin, and
// executes them on the simulator or on a running bridge.
func main() {

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	interpreter := service.NewKeywordInterpreter(service.VocabularyFromConfig(cfg.Interpreter))

	var sink port.ActionSink
	var simulator *service.Simulator
	switch cfg.Mode {
	case config.MODE_BRIDGE:
		bridge := client.NewBridgeClient(cfg.Bridge.Address(), cfg.Bridge.ClientTimeout(), logger)
		defer bridge.Close()
		sink = bridge
	default:
		simulator = service.NewSimulator(logger)
		sink = simulator
	}

	run := func(text string) {
		action := interpreter.Interpret(text)
		fmt.Printf("> %s\n  action: %s\n", text, describe(action))

		result := sink.Apply(context.Background(), action)
		fmt.Printf("  result: %s\n", describeResult(result))

		if simulator != nil {
			printStatus(os.Stdout, simulator.Snapshot())
		}
	}

	if len(os.Args) > 1 {
		for _, arg := range os.Args[1:] {
			run(arg)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if text := strings.TrimSpace(scanner.Text()); text != "" {
			run(text)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("reading stdin", zap.Error(err))
		os.Exit(1)
	}
}

func describe(action domain.Action) string {
	if action.IsUnknown() {
		return string(domain.IntentUnknown)
	}
	return fmt.Sprintf("%s %s %s", action.Intent, action.LocationOrGlobal(), action.Value)
}

func describeResult(result domain.BridgeResult) string {
	var b strings.Builder
	if result.Accepted {
		b.WriteString("accepted")
	} else {
		b.WriteString("rejected")
	}
	if result.DeviceLineEcho != "" {
		fmt.Fprintf(&b, " (%s)", result.DeviceLineEcho)
	}
	if result.Error != "" {
		fmt.Fprintf(&b, ": %s", result.Error)
	}
	return b.String()
}

func printStatus(w io.Writer, state map[service.DeviceKey]domain.Value) {
	keys := make([]service.DeviceKey, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	fmt.Fprintln(w, "  home status:")
	if len(keys) == 0 {
		fmt.Fprintln(w, "    (no devices set)")
	}
	for _, k := range keys {
		fmt.Fprintf(w, "    %-24s %s\n", k, state[k])
	}
}
