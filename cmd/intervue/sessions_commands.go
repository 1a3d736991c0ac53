package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect interview sessions",
	}

	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsShowCommand(ctx))

	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's interview sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(rt *cliRuntime) error {
				summaries, err := rt.service.ListSessions(cmd.Context(), userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No sessions found")
					return nil
				}

				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					rows = append(rows, []string{
						s.SessionID,
						s.JobTitle,
						string(s.Status),
						s.CreatedAt.Local().Format(time.DateTime),
						s.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Session", "Job Title", "Status", "Created", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User identifier")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newSessionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <sessionID>",
		Short: "Show session questions, transcripts, and feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := strings.TrimSpace(args[0])
			return ctx.withService(cmd.Context(), func(rt *cliRuntime) error {
				details, err := rt.service.SessionDetails(cmd.Context(), sessionID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session:   %s\n", details.SessionID)
				fmt.Fprintf(out, "Job title: %s\n", details.JobTitle)
				fmt.Fprintf(out, "Status:    %s\n", details.Status)
				fmt.Fprintf(out, "Created:   %s\n", details.CreatedAt.Local().Format(time.DateTime))

				if len(details.Questions) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, heading(out, "Questions"))
					rows := make([][]string, 0, len(details.Questions))
					for _, q := range details.Questions {
						rows = append(rows, []string{q.QuestionID, q.Question, yesNo(q.Answered)})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Question ID", "Question", "Answered"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft},
					))
				}

				if len(details.Log) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, heading(out, "Evaluation"))
					rows := make([][]string, 0, len(details.Log))
					for _, entry := range details.Log {
						rows = append(rows, []string{
							entry.QuestionID,
							strconv.FormatFloat(entry.Score, 'f', 1, 64),
							entry.Feedback,
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Question ID", "Score", "Feedback"},
						rows,
						[]columnAlignment{alignLeft, alignRight, alignLeft},
					))
				}

				if details.Feedback != nil {
					fb := details.Feedback
					fmt.Fprintln(out)
					fmt.Fprintln(out, heading(out, "Final Assessment"))
					fmt.Fprintf(out, "Overall score: %.1f/10\n", fb.OverallScore)
					if len(fb.KeyStrengths) > 0 {
						fmt.Fprintf(out, "Strengths:     %s\n", strings.Join(fb.KeyStrengths, "; "))
					}
					if len(fb.AreasForGrowth) > 0 {
						fmt.Fprintf(out, "Growth areas:  %s\n", strings.Join(fb.AreasForGrowth, "; "))
					}
					skills := fb.SkillAssessment
					fmt.Fprintln(out, renderTable(
						[]string{"Skill", "Score"},
						[][]string{
							{"Technical", formatScore(skills.Technical)},
							{"Problem solving", formatScore(skills.ProblemSolving)},
							{"Communication", formatScore(skills.Communication)},
							{"Leadership", formatScore(skills.Leadership)},
							{"Adaptability", formatScore(skills.Adaptability)},
							{"Behavioral fit", formatScore(skills.BehavioralFit)},
							{"Confidence", formatScore(skills.Confidence)},
						},
						[]columnAlignment{alignLeft, alignRight},
					))
				}
				return nil
			})
		},
	}
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64)
}
