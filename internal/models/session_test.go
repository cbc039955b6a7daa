package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestSessionCursor(t *testing.T) {
	session := &Session{
		QuestionIDs: datatypes.NewJSONSlice([]string{"q1", "q2", "q3"}),
	}

	id, ok := session.CurrentQuestionID()
	assert.True(t, ok)
	assert.Equal(t, "q1", id)
	assert.False(t, session.OnLastQuestion())

	session.CurrentIndex = 2
	id, ok = session.CurrentQuestionID()
	assert.True(t, ok)
	assert.Equal(t, "q3", id)
	assert.True(t, session.OnLastQuestion())

	session.CurrentIndex = 3
	_, ok = session.CurrentQuestionID()
	assert.False(t, ok)
}

func TestSessionRevisionTracking(t *testing.T) {
	session := &Session{Revision: 1, PushedRevision: 1}
	assert.False(t, session.Dirty())

	session.Touch()
	assert.True(t, session.Dirty())
	assert.EqualValues(t, 2, session.Revision)

	session.PushedRevision = session.Revision
	assert.False(t, session.Dirty())
}

func TestQuestionIsCorrect(t *testing.T) {
	q := &Question{CorrectOption: OptionC}
	assert.True(t, q.IsCorrect(OptionC))
	assert.False(t, q.IsCorrect(OptionA))
}
