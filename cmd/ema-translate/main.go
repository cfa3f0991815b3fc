// Command ema-translate is a terminal client for a translation session.
//
// Usage:
//
//	ema-translate [-mode conversation|streaming|live] [-lang-a en] [-lang-b ja]
//	ema-translate schema
//
// The backend is configured with EMA_TRANSLATE_URL, EMA_TRANSLATE_TOKEN and
// the optional EMA_TRANSLATE_ENTITLEMENT_URL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	translation "github.com/koscakluka/ema-translate/core"
	"github.com/koscakluka/ema-translate/core/channel/websocket"
	"github.com/koscakluka/ema-translate/core/entitlement"
	"github.com/koscakluka/ema-translate/core/protocol"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "schema" {
		if err := printSchemas(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("ema-translate", flag.ContinueOnError)
	modeName := flags.String("mode", string(translation.ModeConversation), "session mode: conversation, streaming or live")
	langA := flags.String("lang-a", "en", "language of speaker A, or the source language")
	langB := flags.String("lang-b", "ja", "language of speaker B, or the target language")
	if err := flags.Parse(args); err != nil {
		return err
	}

	mode, err := translation.ParseMode(*modeName)
	if err != nil {
		return err
	}

	dialer, err := websocket.NewDialerFromEnv()
	if err != nil {
		return fmt.Errorf("failed to configure backend: %w", err)
	}

	observer := &programObserver{}
	session := translation.New(
		translation.WithMode(mode),
		translation.WithDialer(dialer),
		translation.WithEntitlement(entitlement.NewCheckerFromEnv()),
		translation.WithObserver(observer),
	)
	defer session.Disconnect(context.Background())

	program := tea.NewProgram(
		newModel(session, translation.LanguageSelection{LangA: *langA, LangB: *langB}),
		tea.WithAltScreen(),
	)
	observer.program = program

	_, err = program.Run()
	return err
}

func printSchemas(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(protocol.Schemas())
}
