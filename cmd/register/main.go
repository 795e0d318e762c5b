package main

import (
	"flag"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomostudy"
)

func main() {
	var isProd bool
	var configPath string
	flag.BoolVar(&isProd, "prod", false, "load .env instead of .env.dev")
	flag.StringVar(&configPath, "config", "", "optional YAML config file")
	flag.Parse()

	pomostudy.LoadEnv(isProd)
	cfg, err := pomostudy.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireBotToken(); err != nil {
		log.Fatal(err)
	}

	bot, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatal(err)
	}

	// Open a connection
	if err := bot.Open(); err != nil {
		log.Fatal("Error opening connection", "err", err)
	}
	defer bot.Close() //nolint

	app, err := bot.Application("@me")
	if err != nil {
		log.Fatal("failed to get application", "err", err)
	}

	created, err := bot.ApplicationCommandBulkOverwrite(app.ID, "", pomostudy.Commands)
	if err != nil {
		log.Fatal(err)
	}

	for _, cmd := range created {
		fmt.Printf("%s: %s\n", cmd.Name, cmd.Description)
	}
}
