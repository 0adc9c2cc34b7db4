package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet   = "Quiz"
	QuestionsSheet = "Questions"
)

// QuestionHeaders is the header row of the questions sheet.
var QuestionHeaders = []string{
	"#", "Type", "Title", "Question Text", "Options", "Correct Answer", "Marks", "Explanation",
}

// ContentType is the MIME type of the workbook produced by WriteQuiz.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteQuiz renders quiz as an XLSX workbook: a summary sheet followed by
// one row per question in quiz order.
func WriteQuiz(w io.Writer, quiz domain.Quiz) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	status := "Draft"
	if quiz.IsPublished {
		status = "Published"
	}
	summary := [][]any{
		{"ID", quiz.ID},
		{"Title", quiz.Title},
		{"Description", quiz.Description},
		{"Status", status},
		{"Questions", len(quiz.Questions)},
		{"Total Marks", domain.TotalMarks(quiz.Questions)},
	}
	for i, row := range summary {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(QuestionsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	header := make([]any, len(QuestionHeaders))
	for i, h := range QuestionHeaders {
		header[i] = h
	}
	if err := setRow(f, QuestionsSheet, 1, header); err != nil {
		return err
	}
	for i, q := range quiz.Questions {
		if err := setRow(f, QuestionsSheet, i+2, questionRow(i+1, q)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func questionRow(position int, q domain.Question) []any {
	options := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, opt.Text)
	}
	if q.Type == domain.QuestionTypeTrueFalse && len(options) == 0 {
		options = append(options, domain.TrueFalseChoices...)
	}
	return []any{
		position,
		q.Type.Label(),
		q.Title,
		q.Text,
		strings.Join(options, " | "),
		correctAnswerText(q),
		q.Marks,
		q.Explanation,
	}
}

// correctAnswerText resolves an option id to its text; free-text answers pass through.
func correctAnswerText(q domain.Question) string {
	for _, opt := range q.Options {
		if opt.ID == q.CorrectAnswer {
			return opt.Text
		}
	}
	return q.CorrectAnswer
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
