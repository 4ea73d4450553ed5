package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tablekit/backend/config"
	"github.com/tablekit/backend/internal/bootstrap"
	"github.com/tablekit/backend/pkg/queue"
)

var redriveCount int

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and repair the email queue",
}

func openQueue(cmd *cobra.Command) (*queue.Queue, func(), error) {
	logger := bootstrap.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	rdb := bootstrap.OpenRedis(cmd.Context(), cfg, logger)
	if rdb == nil {
		return nil, nil, errors.New("redis is unreachable")
	}
	return queue.NewQueue(rdb.Client, logger), func() {
		_ = rdb.Close()
		_ = logger.Sync()
	}, nil
}

// tablectl queue stats
var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pending and dead-lettered job counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, done, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer done()
		s, err := q.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pending: %d\ndead letter: %d\n", s.Pending, s.DeadLetter)
		return nil
	},
}

// tablectl queue redrive
var queueRedriveCmd = &cobra.Command{
	Use:   "redrive",
	Short: "Move dead-lettered jobs back onto the email queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, done, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer done()
		n, err := q.Redrive(cmd.Context(), redriveCount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "requeued %d job(s)\n", n)
		return nil
	},
}

func init() {
	queueRedriveCmd.Flags().IntVar(&redriveCount, "count", 100, "maximum number of jobs to move")
	queueCmd.AddCommand(queueStatsCmd, queueRedriveCmd)
}
