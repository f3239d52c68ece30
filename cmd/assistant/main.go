// Package main provides the conversational assistant entry point: a line
// oriented console session on top of the assistant service. The chat surface
// is deliberately minimal; every transport concern lives behind the inbound
// port.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/mealmind/v1/internal/infrastructure/container"
	"github.com/mealmind/v1/internal/ports/inbound"
)

func main() {
	var assistant inbound.AssistantService

	app := fx.New(
		fx.NopLogger, // use our own logger instead of Fx's
		container.Module,
		fx.Populate(&assistant),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 15*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	sessionID := uuid.NewString()
	timezone := os.Getenv("MEALMIND_TIMEZONE")
	if timezone == "" {
		timezone = "UTC"
	}

	fmt.Println("MealMind nutrition assistant. Tell me what you ate, save a recipe, or ask how your day is going. Ctrl-D to quit.")
	runSession(ctx, assistant, sessionID, timezone)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func runSession(ctx context.Context, assistant inbound.AssistantService, sessionID, timezone string) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			return
		}

		reply, err := assistant.Send(ctx, message, sessionID, timezone)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(reply.Message)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
