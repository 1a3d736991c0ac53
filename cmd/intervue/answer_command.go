package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"intervue/internal/answers"
)

func newAnswerCommand(ctx *commandContext) *cobra.Command {
	var questionID string
	var audioPath string
	var batchFiles []string

	cmd := &cobra.Command{
		Use:   "answer <sessionID>",
		Short: "Upload answer audio for session questions",
		Long: `Upload answer audio for session questions.

Single upload:
  intervue answer <sessionID> --question <questionID> --audio recording.wav

Batch upload (all files stored before any question is bound):
  intervue answer <sessionID> --file <questionID>=recording1.wav --file <questionID>=recording2.wav`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := strings.TrimSpace(args[0])
			single := questionID != "" || audioPath != ""
			if single && len(batchFiles) > 0 {
				return errors.New("use either --question/--audio or repeated --file, not both")
			}
			if !single && len(batchFiles) == 0 {
				return errors.New("nothing to upload: provide --question/--audio or --file")
			}

			return ctx.withService(cmd.Context(), func(rt *cliRuntime) error {
				out := cmd.OutOrStdout()
				if single {
					if questionID == "" || audioPath == "" {
						return errors.New("single upload needs both --question and --audio")
					}
					audio, err := os.ReadFile(audioPath)
					if err != nil {
						return fmt.Errorf("read audio: %w", err)
					}
					audioKey, err := rt.service.UploadAnswer(cmd.Context(), sessionID, questionID, audio)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Answer stored for question %s\n", questionID)
					fmt.Fprintf(out, "Audio key: %s\n", audioKey)
					return nil
				}

				uploads, err := parseBatchFiles(batchFiles)
				if err != nil {
					return err
				}
				keys, err := rt.service.UploadAnswers(cmd.Context(), sessionID, uploads)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Stored %d answers\n", len(uploads))
				for _, upload := range uploads {
					fmt.Fprintf(out, "  %s: %s\n", upload.QuestionID, keys[upload.QuestionID])
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&questionID, "question", "q", "", "Question identifier")
	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Path to the answer recording")
	cmd.Flags().StringSliceVarP(&batchFiles, "file", "f", nil, "Batch upload entry as questionID=path (repeatable)")
	return cmd
}

func parseBatchFiles(entries []string) ([]answers.Upload, error) {
	uploads := make([]answers.Upload, 0, len(entries))
	for _, entry := range entries {
		id, path, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("invalid --file value %q: expected questionID=path", entry)
		}
		audio, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return nil, fmt.Errorf("read audio for question %s: %w", id, err)
		}
		uploads = append(uploads, answers.Upload{
			QuestionID: strings.TrimSpace(id),
			Audio:      audio,
		})
	}
	return uploads, nil
}
