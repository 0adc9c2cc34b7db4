package app

import (
	"testing"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderQuestionByType(t *testing.T) {
	quiz := reactQuiz()

	mcq := RenderQuestion(0, quiz.Questions[0], "")
	assert.Equal(t, InputChoice, mcq.InputKind)
	assert.Equal(t, "Multiple Choice", mcq.TypeLabel)
	require.Len(t, mcq.Choices, 2)
	assert.Equal(t, "opt1", mcq.Choices[0].ID)
	assert.Equal(t, "Please provide an answer before proceeding", mcq.Status)

	tf := RenderQuestion(1, quiz.Questions[1], "False")
	assert.Equal(t, InputChoice, tf.InputKind)
	assert.Equal(t, []Choice{{ID: "True", Text: "True"}, {ID: "False", Text: "False"}}, tf.Choices)
	assert.Equal(t, "Your answer has been saved", tf.Status)

	short := RenderQuestion(3, quiz.Questions[3], "")
	assert.Equal(t, InputText, short.InputKind)
	assert.Empty(t, short.Choices)

	essay := RenderQuestion(4, quiz.Questions[4], "Hooks let...")
	assert.Equal(t, InputTextarea, essay.InputKind)
	assert.Equal(t, 20, essay.Marks)
	assert.Equal(t, "Hooks let...", essay.Answer)
}

func TestBuildProgressKeysByQuestionID(t *testing.T) {
	quiz := reactQuiz()
	// ids that do not match their positions
	for i := range quiz.Questions {
		quiz.Questions[i].ID = []string{"zeta", "0", "alpha", "1", "omega"}[i]
	}
	quiz.Questions[0].Options = nil
	quiz.Questions[0].Type = domain.QuestionTypeText

	a := NewAttempt(quiz)
	require.NoError(t, a.SetAnswer("zeta", "x"))
	require.NoError(t, a.SetAnswer("alpha", "opt2"))
	require.NoError(t, a.JumpTo(3))

	p := BuildProgress(a)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 2, p.Answered)
	assert.Equal(t, 80, p.Percent)

	answered := make([]bool, len(p.Cells))
	for i, cell := range p.Cells {
		answered[i] = cell.Answered
		assert.Equal(t, i == 3, cell.Current)
	}
	assert.Equal(t, []bool{true, false, true, false, false}, answered)
	assert.Equal(t, "omega", p.Cells[4].QuestionID)
}
