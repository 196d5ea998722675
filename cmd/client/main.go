package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pairchat/internal/client"
)

func main() {
	var (
		endpoint = flag.String("endpoint", "ws://localhost:3000/ws", "server websocket endpoint")
		userID   = flag.String("user", "", "user id to log in with")
		name     = flag.String("name", "", "optional user name")
		email    = flag.String("email", "", "optional user email")
		offset   = flag.Int64("offset", 0, "last seen server offset")
	)
	flag.Parse()

	if *userID == "" {
		log.Fatal("missing -user")
	}

	cfg := client.Config{
		Endpoint:   *endpoint,
		AuthOffset: *offset,
		AckTimeout: 10 * time.Second,
		Retries:    3,
	}

	c, err := client.Dial(cfg, *userID, *name, *email)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Login(ctx); err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("logged in as %s\n", *userID)
	fmt.Println("commands: /chat <peer>, /msg <peer> <text>, /general <text>, /log <text>, /inbox, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "/chat":
			roomID, err := c.StartChatWith(ctx, rest)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("chat open, room %s\n", roomID)
		case "/msg":
			peer, text, ok := strings.Cut(rest, " ")
			if !ok {
				fmt.Println("usage: /msg <peer> <text>")
				continue
			}
			if err := c.SendMessageTo(peer, text); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		case "/general":
			if err := c.SendMessageToGeneral(rest); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		case "/log":
			if err := c.SendChatMessage(ctx, rest); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		case "/inbox":
			for peer, msgs := range c.Messages() {
				for _, m := range msgs {
					fmt.Printf("[%s] %s\n", peer, m.Message)
				}
			}
		case "/quit":
			return
		default:
			fmt.Println("unknown command")
		}
	}
}
