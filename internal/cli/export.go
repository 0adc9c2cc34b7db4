package cli

import (
	"fmt"
	"os"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/config"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/export"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/logging"
	"github.com/spf13/cobra"
)

// NewExportCmd writes a stored quiz to an XLSX file.
func NewExportCmd(configPath *string) *cobra.Command {
	var quizID, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a quiz to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.Format)
			store, err := openStorage(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.close()

			quiz, err := store.quizzes.LoadQuiz(cmd.Context(), quizID)
			if err != nil {
				return fmt.Errorf("load quiz %s: %w", quizID, err)
			}
			if out == "" {
				out = fmt.Sprintf("quiz-%s.xlsx", quiz.ID)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.WriteQuiz(f, quiz); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("quiz exported", "quiz_id", quiz.ID, "file", out, "questions", len(quiz.Questions))
			return nil
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "id of the quiz to export")
	cmd.Flags().StringVar(&out, "out", "", "output file (default quiz-<id>.xlsx)")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}
