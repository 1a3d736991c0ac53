package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"intervue/internal/dispatch"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <sessionID>",
		Short: "Hand a session off for evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := strings.TrimSpace(args[0])
			return ctx.withService(cmd.Context(), func(rt *cliRuntime) error {
				result, err := rt.service.Process(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch result.Status {
				case dispatch.AckProcessed:
					fmt.Fprintf(out, "Session %s evaluated\n", result.SessionID)
					fmt.Fprintf(out, "Run `intervue sessions show %s` for the results\n", result.SessionID)
				default:
					fmt.Fprintf(out, "Session %s queued for evaluation\n", result.SessionID)
				}
				return nil
			})
		},
	}
}
