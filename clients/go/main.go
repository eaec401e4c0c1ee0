// Command haven-cli is a minimal terminal client: it binds an identity,
// joins one channel and relays stdin lines as messages.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/haven-chat/haven/clients/go/haven"
)

func main() {
	server := flag.String("server", "ws://localhost:8080/ws", "server websocket URL")
	username := flag.String("user", "anonymous", "username to assert")
	channel := flag.String("channel", "general", "channel to join")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := haven.Dial(ctx, *server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	go func() {
		err := client.Listen(func(frame haven.Frame) {
			switch frame.Event {
			case haven.EventNewMessage:
				var p struct {
					Message haven.Message `json:"message"`
				}
				if json.Unmarshal(frame.Data, &p) == nil {
					fmt.Printf("[%s] %s: %s\n", p.Message.ChannelID, p.Message.Username, p.Message.Content)
				}
			case haven.EventError:
				var p struct {
					Message string `json:"message"`
				}
				if json.Unmarshal(frame.Data, &p) == nil {
					fmt.Fprintf(os.Stderr, "server error: %s\n", p.Message)
				}
			case haven.EventChannelMessages:
				var p struct {
					ChannelID string          `json:"channel_id"`
					Messages  []haven.Message `json:"messages"`
				}
				if json.Unmarshal(frame.Data, &p) == nil {
					for _, m := range p.Messages {
						fmt.Printf("[%s] %s: %s\n", p.ChannelID, m.Username, m.Content)
					}
				}
			}
		})
		fmt.Fprintf(os.Stderr, "disconnected: %v\n", err)
		os.Exit(0)
	}()

	if err := client.JoinIdentity(haven.User{ID: *username, Username: *username}); err != nil {
		fmt.Fprintf(os.Stderr, "join identity: %v\n", err)
		os.Exit(1)
	}
	if err := client.JoinChannel(*channel); err != nil {
		fmt.Fprintf(os.Stderr, "join channel: %v\n", err)
		os.Exit(1)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := client.SendText(*channel, line); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			return
		}
	}
}
