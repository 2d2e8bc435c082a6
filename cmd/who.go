package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hzroom/internal/app/chat"
	"hzroom/internal/app/topic"
	"hzroom/internal/configs"
	"hzroom/internal/pkg/logx"
)

func newWhoCmd() *cobra.Command {
	var (
		serverID string
		window   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "who",
		Short: "List nicknames online on a server",
		Long: "who attaches to the server topic without joining it, asks for announcements and " +
			"prints every nickname heard within the window. It needs REDIS_ADDR to see other processes.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configs.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logx.InitGlobalLogger(cfg.IsDevelopment())

			if cfg.RedisAddr == "" {
				logx.Warn("REDIS_ADDR is not set; only this process would be visible.")
			}
			if window <= 0 {
				window = cfg.ObserveWindow()
			}

			ch, err := openChannel(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer ch.Close()

			names, err := chat.Observe(cmd.Context(), ch, topic.Name(cfg.BaseChannel, serverID), window, logx.Component("who"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "nobody online on %s\n", serverID)
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&serverID, "server", "s", "srv-1", "server id to inspect")
	cmd.Flags().DurationVarP(&window, "window", "w", 0, "how long to listen (default 1.5x the heartbeat period)")
	return cmd
}
