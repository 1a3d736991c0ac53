package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var jobTitle string
	var jobDescription string
	var jobDescriptionFile string
	var resumeFile string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a mock interview session",
		RunE: func(cmd *cobra.Command, args []string) error {
			description, err := resolveText(jobDescription, jobDescriptionFile)
			if err != nil {
				return fmt.Errorf("job description: %w", err)
			}

			resume := ""
			if strings.TrimSpace(resumeFile) != "" {
				data, err := os.ReadFile(resumeFile)
				if err != nil {
					return fmt.Errorf("read resume: %w", err)
				}
				resume = string(data)
			}

			return ctx.withService(cmd.Context(), func(rt *cliRuntime) error {
				result, err := rt.service.Start(cmd.Context(), userID, jobTitle, description, resume)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s started for %q\n", result.SessionID, result.JobTitle)

				rows := make([][]string, 0, len(result.Questions))
				for _, q := range result.Questions {
					rows = append(rows, []string{q.QuestionID, q.Question})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Question ID", "Question"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User identifier")
	cmd.Flags().StringVarP(&jobTitle, "job-title", "t", "", "Target job title")
	cmd.Flags().StringVar(&jobDescription, "job-description", "", "Job description text")
	cmd.Flags().StringVar(&jobDescriptionFile, "job-description-file", "", "File containing the job description")
	cmd.Flags().StringVar(&resumeFile, "resume", "", "File containing the candidate resume")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("job-title")
	return cmd
}

// resolveText prefers inline text and falls back to reading a file.
func resolveText(inline, path string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
