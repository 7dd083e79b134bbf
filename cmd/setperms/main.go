package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/data"

	tb "gopkg.in/telebot.v3"
)

// setperms manually applies the open or restricted permission profile to
// one chat, for recovering from a missed schedule fire.
func main() {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		fmt.Println("Error: TELEGRAM_BOT_TOKEN must be set")
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Println("Usage: setperms <chat_id> <open|closed>")
		os.Exit(1)
	}

	chatID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		fmt.Printf("Error: bad chat ID %q\n", os.Args[1])
		os.Exit(1)
	}

	var profile domain.PermissionProfile
	switch os.Args[2] {
	case "open":
		profile = domain.ProfileOpen
	case "closed":
		profile = domain.ProfileRestricted
	default:
		fmt.Printf("Error: bad state %q, want open or closed\n", os.Args[2])
		os.Exit(1)
	}

	bot, err := tb.NewBot(tb.Settings{
		Token:  token,
		Poller: &tb.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	chatRepo := data.NewChatRepo(bot)
	if err := chatRepo.SetChatPermissions(context.Background(), chatID, profile); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Chat %d set to %s\n", chatID, profile)
}
