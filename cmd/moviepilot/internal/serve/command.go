package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zifox666/MoviePilot/pkg/api"
	"github.com/zifox666/MoviePilot/pkg/bus"
	"github.com/zifox666/MoviePilot/pkg/channels"
	"github.com/zifox666/MoviePilot/pkg/config"
	"github.com/zifox666/MoviePilot/pkg/logger"
	"github.com/zifox666/MoviePilot/pkg/onebot"
)

func NewServeCommand() *cobra.Command {
	var debug bool
	var configPath string

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the messaging gateway",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serveCmd(configPath, debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path (.yaml or .json)")

	return cmd
}

func serveCmd(configPath string, debug bool) error {
	logger.SetDebug(debug)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Onebot) == 0 {
		logger.WarnC("serve", "No onebot sources configured, using defaults for source onebot11")
		cfg.Onebot = map[string]config.OnebotConfig{"onebot11": {}}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.NewMessageBus()
	module := onebot.NewModule(onebot.NewRegistry(), cfg.Onebot)
	active := []channels.Channel{module}

	// Pipeline consumer. The full message chain lives upstream; the
	// gateway logs what it hands over.
	go func() {
		for {
			msg, ok := messageBus.ConsumeInbound(ctx)
			if !ok {
				return
			}
			logger.InfoCF("pipeline", "Message accepted", map[string]interface{}{
				"channel":  string(msg.Channel),
				"source":   msg.Source,
				"user_id":  msg.UserID,
				"username": msg.Username,
			})
		}
	}()

	server := api.NewServer(cfg, module, messageBus)
	err = server.Start(ctx)

	for _, ch := range active {
		ch.Stop()
	}
	messageBus.Close()
	return err
}
