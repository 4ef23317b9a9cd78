package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/agenthands/sentinel/internal/model"
	"github.com/agenthands/sentinel/internal/queue"
)

func newDLQCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect and redrive dead-lettered messages",
	}
	cmd.AddCommand(newDLQInspectCmd(opts), newDLQRedriveCmd(opts))
	return cmd
}

func openQueues(ctx context.Context, opts *globalOptions) (*queue.Set, error) {
	cfg, err := config.LoadWithEnv(opts.configPath)
	if err != nil {
		return nil, err
	}
	return queue.Open(ctx, cfg.Queue)
}

type dlqEntry struct {
	ID            string               `json:"id"`
	OriginalQueue string               `json:"originalQueue"`
	FailureReason string               `json:"failureReason"`
	FailedAt      string               `json:"failedAt"`
	Envelope      *model.QueueEnvelope `json:"envelope,omitempty"`
	RawBody       string               `json:"rawBody,omitempty"`
}

func newDLQInspectCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List dead-lettered messages without removing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			qs, err := openQueues(ctx, opts)
			if err != nil {
				return err
			}
			defer qs.Close()

			msgs, err := qs.DeadLetter.Peek(ctx, limit)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, m := range msgs {
				entry := dlqEntry{
					ID:            m.ID,
					OriginalQueue: m.Attributes[model.AttrOriginalQueue],
					FailureReason: m.Attributes[model.AttrFailureReason],
					FailedAt:      m.Attributes[model.AttrFailedAt],
				}
				var env model.QueueEnvelope
				if err := json.Unmarshal(m.Body, &env); err == nil {
					entry.Envelope = &env
				} else {
					entry.RawBody = string(m.Body)
				}
				if err := enc.Encode(entry); err != nil {
					return err
				}
			}
			total, err := qs.DeadLetter.Len(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d shown, %d in %s\n", len(msgs), total, qs.DeadLetter.Name())
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum messages to show")
	return cmd
}

func newDLQRedriveCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "redrive",
		Short: "Move dead-lettered messages back to their original queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			qs, err := openQueues(ctx, opts)
			if err != nil {
				return err
			}
			defer qs.Close()

			n, err := redrive(ctx, qs, limit)
			fmt.Fprintf(cmd.OutOrStdout(), "redrove %d message(s)\n", n)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum messages to move")
	return cmd
}

func redrive(ctx context.Context, qs *queue.Set, limit int) (int, error) {
	byName := map[string]queue.Queue{
		qs.Normal.Name(): qs.Normal,
		qs.High.Name():   qs.High,
	}

	msgs, err := qs.DeadLetter.Receive(ctx, limit, time.Minute)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, m := range msgs {
		target, ok := byName[m.Attributes[model.AttrOriginalQueue]]
		if !ok {
			target = qs.Normal
		}
		if _, err := target.Send(ctx, m.Body, nil); err != nil {
			return moved, fmt.Errorf("redrive %s: %w", m.ID, err)
		}
		if err := qs.DeadLetter.Delete(ctx, m.Receipt); err != nil {
			return moved, fmt.Errorf("redrive %s: %w", m.ID, err)
		}
		moved++
	}
	return moved, nil
}
