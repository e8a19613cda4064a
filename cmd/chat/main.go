package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"persona-chat/internal/agent"
	"persona-chat/internal/config"
	"persona-chat/internal/database"
	"persona-chat/internal/retry"
)

// A terminal chat client for the persona relay. The visitor introduces
// themselves once per session (the persisted name only pre-fills the
// prompt), then chats line by line. `/name` changes the name, `/quit` exits.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	db, err := database.InitDB(cfg.ProfileDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open profile database: %v\n", err)
		return 1
	}
	defer db.Close()

	ctx := context.Background()
	store := agent.NewSQLiteProfileStore(db)
	chatAgent := agent.New(cfg.RelayURL, store, retry.Default())

	reader := bufio.NewScanner(os.Stdin)

	if err := askName(ctx, chatAgent, reader); err != nil {
		return 0 // EOF during the name prompt, nothing to do
	}

	fmt.Printf("Hi %s! Ask me anything. (/name to change your name, /quit to leave)\n", chatAgent.Name())

	for {
		fmt.Print("> ")
		if !reader.Scan() {
			return 0
		}
		line := strings.TrimSpace(reader.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			return 0
		case line == "/name":
			chatAgent.ClearName()
			if err := askName(ctx, chatAgent, reader); err != nil {
				return 0
			}
			fmt.Printf("Nice to meet you, %s!\n", chatAgent.Name())
			continue
		}

		reply, err := chatAgent.SubmitTurn(ctx, line)
		if err != nil {
			fmt.Println(describeFailure(err))
			continue
		}
		fmt.Println(reply)
	}
}

// askName loops until the visitor submits a non-empty name. The persisted
// name, when present, is offered as the default.
func askName(ctx context.Context, chatAgent *agent.Agent, reader *bufio.Scanner) error {
	stored, err := chatAgent.LoadPersistedName(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read the stored name: %v\n", err)
	}

	for {
		if stored != "" {
			fmt.Printf("What's your name? [%s] ", stored)
		} else {
			fmt.Print("What's your name? ")
		}
		if !reader.Scan() {
			return errors.New("input closed")
		}
		name := strings.TrimSpace(reader.Text())
		if name == "" {
			name = stored
		}
		if name == "" {
			continue
		}
		if err := chatAgent.SetName(ctx, name); err != nil {
			fmt.Fprintf(os.Stderr, "Could not save your name: %v\n", err)
			continue
		}
		return nil
	}
}

// describeFailure turns an agent error into the visible status text shown
// in place of a reply.
func describeFailure(err error) string {
	var relayErr *agent.RelayError
	switch {
	case errors.As(err, &relayErr):
		if relayErr.RetryAfter > 0 {
			return fmt.Sprintf("[the assistant is overloaded, try again in %s]", relayErr.RetryAfter)
		}
		return fmt.Sprintf("[request failed with status %d: %s]", relayErr.Code, relayErr.Message)
	case errors.Is(err, agent.ErrBusy):
		return "[still waiting for the previous reply]"
	case errors.Is(err, agent.ErrUnnamed):
		return "[introduce yourself first with /name]"
	default:
		return fmt.Sprintf("[network error, please check your connection: %v]", err)
	}
}
