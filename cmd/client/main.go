package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BrianBNeal/DistributedDemo/internal/client"
	"github.com/BrianBNeal/DistributedDemo/internal/domain"
	"github.com/BrianBNeal/DistributedDemo/internal/log"
)

// consoleEvents renders chat events to stdout. The client serializes
// callbacks, so plain prints never interleave.
type consoleEvents struct{}

func (consoleEvents) MessageReceived(msg domain.ChatMessage) {
	if msg.Type == domain.MessageTypeSystem {
		fmt.Printf("* %s\n", msg.Content)
		return
	}
	fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Local().Format("15:04"), msg.UserName, msg.Content)
}

func (consoleEvents) UserJoined(user domain.User) {}

func (consoleEvents) UserLeft(userName string) {}

func (consoleEvents) HistoryLoaded(history domain.ChatHistoryResponse) {
	for _, msg := range history.Messages {
		consoleEvents{}.MessageReceived(msg)
	}
	fmt.Printf("-- %d online --\n", len(history.OnlineUsers))
}

func (consoleEvents) ConnectionError(message string) {
	fmt.Fprintf(os.Stderr, "error: %s\n", message)
}

func (consoleEvents) StateChanged(state client.State) {
	fmt.Printf("-- %s --\n", state)
}

func main() {
	server := flag.String("server", "ws://localhost:8080", "chat server base URL")
	name := flag.String("name", "", "display name")
	flag.Parse()

	log.Init(log.Config{Level: "warn", ServiceName: "chat-client"})

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: client -name <display name> [-server ws://host:port]")
		os.Exit(2)
	}

	chat := client.New(*server, consoleEvents{})

	ctx := context.Background()
	if err := chat.Connect(ctx, *name); err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-quit:
			chat.Disconnect(ctx)
			return
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				chat.Disconnect(ctx)
				return
			}
			if line == "" {
				continue
			}
			chat.Send(line)
		}
	}
}
