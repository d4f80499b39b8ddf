// relaycheck streams one prompt through a provider adapter and prints
// the fragments, for checking credentials and connectivity without the
// HTTP server:
//
//	go run ./cmd/relaycheck -model deepseek "Apa kabar?"
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"AksaraAI/pkg/config"
	svc "AksaraAI/pkg/services"
)

func main() {
	model := flag.String("model", svc.ModelGemini, "provider to call: gemini or deepseek")
	timeout := flag.Duration("timeout", 90*time.Second, "overall deadline for the call")
	search := flag.Bool("search", false, "enable search grounding (gemini only)")
	flag.Parse()

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: relaycheck [-model gemini|deepseek] <prompt>")
		os.Exit(2)
	}

	cfg := config.Load()
	chat := svc.NewChatService(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	full, err := chat.Relay(ctx, svc.RelayRequest{Message: prompt, Model: *model, UseSearch: *search}, func(chunk string) {
		fmt.Print(chunk)
	})
	fmt.Println()
	if err != nil {
		log.Fatalf("relay failed: %v", err)
	}
	log.Printf("[relaycheck] model=%s chars=%d took=%s", *model, len(full), time.Since(start).Round(time.Millisecond))
}
