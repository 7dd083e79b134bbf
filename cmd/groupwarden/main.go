package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/groupwarden/internal/api"
	"github.com/anthropics/groupwarden/internal/biz/usecase"
	"github.com/anthropics/groupwarden/internal/conf"
	"github.com/anthropics/groupwarden/internal/data"
	"github.com/anthropics/groupwarden/internal/server"
	"github.com/anthropics/groupwarden/internal/service"
	"github.com/joho/godotenv"
	tb "gopkg.in/telebot.v3"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Settings store
	settingsRepo, err := data.NewSettingsRepo(cfg.Store.DBPath)
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}
	defer settingsRepo.Close()
	fmt.Printf("[Warden] Settings DB: %s\n", cfg.Store.DBPath)

	// Telegram client
	bot, err := tb.NewBot(tb.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tb.LongPoller{Timeout: cfg.Telegram.PollTimeout},
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	chatRepo := data.NewChatRepo(bot)

	// Usecase layer
	ctx := context.Background()
	settingsUC, err := usecase.NewSettingsUsecase(ctx, settingsRepo, cfg.SeedOperators)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	privilegeUC := usecase.NewPrivilegeUsecase(chatRepo, settingsUC)
	moderationUC := usecase.NewModerationUsecase(chatRepo, settingsUC, privilegeUC)
	newcomerUC := usecase.NewNewcomerUsecase(chatRepo, settingsUC)

	// Schedule controller; rearmed on every schedule mutation
	scheduler := service.NewScheduleController(chatRepo, settingsUC)
	settingsUC.OnScheduleChange(scheduler.Rearm)
	scheduler.Start()

	// Optional status API
	var apiServer *api.Server
	if cfg.API.Port > 0 {
		apiServer = api.NewServer(settingsUC, cfg.API.Port)
		go func() {
			if err := apiServer.Start(); err != nil {
				fmt.Printf("[Warden] API server error: %v\n", err)
			}
		}()
	}

	srv := server.NewTelegramServer(bot, chatRepo, settingsUC, privilegeUC, moderationUC, newcomerUC)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		scheduler.Stop()
		if apiServer != nil {
			apiServer.Stop()
		}
		srv.Stop()
	}()

	fmt.Println("Starting groupwarden...")
	srv.Start()
}
