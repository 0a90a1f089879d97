package main

import (
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/broker"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/config"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/connection"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/event"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/registry"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/relay"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/server"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/spam"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/utils"
)

func main() {
	cfg, err := config.ReadConfig()
	if err != nil {
		logger.FatalF("Error occured while reading config %v", err)
		return
	}
	loggerCallback := logger.Init()
	logger.Debug("Application initializing...")
	cleaner := event.NewCleaner()
	cleaner.Init(loggerCallback)

	guard := spam.NewGuard(spam.OptionsFromConfig(cfg.Spam))
	sweeper := spam.NewSweeper(guard, utils.ParseStringTime(cfg.Spam.SweepInterval))
	sweeper.Start()
	cleaner.Add(sweeper)

	reg := registry.New()
	brk := broker.New()
	sender := connection.NewSender()
	dispatcher := server.NewDispatcher(reg, brk, guard, relay.New(brk, sender), sender)

	server.StartServer(cfg.AppPort, dispatcher)
}
