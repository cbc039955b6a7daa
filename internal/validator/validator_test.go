package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studypath/practice-engine/internal/models"
)

type sampleRequest struct {
	UserID      string              `json:"user_id" validate:"required"`
	SessionType models.SessionType  `json:"session_type" validate:"required,session_type"`
	Option      models.AnswerOption `json:"option" validate:"omitempty,answer_option"`
	Difficulty  models.Difficulty   `json:"difficulty" validate:"omitempty,difficulty"`
	Count       int                 `json:"count" validate:"min=1,max=200"`
}

func TestValidateCustomTags(t *testing.T) {
	v := New()

	t.Run("valid request passes", func(t *testing.T) {
		err := v.Validate(sampleRequest{
			UserID:      "user-1",
			SessionType: models.SessionPractice,
			Option:      models.OptionC,
			Difficulty:  models.DifficultyHard,
			Count:       10,
		})
		assert.NoError(t, err)
	})

	t.Run("invalid enum values reported per field", func(t *testing.T) {
		err := v.Validate(sampleRequest{
			UserID:      "user-1",
			SessionType: "marathon",
			Option:      "F",
			Difficulty:  "impossible",
			Count:       10,
		})
		require.Error(t, err)

		var fieldErrs ValidationErrors
		require.True(t, errors.As(err, &fieldErrs))
		require.Len(t, fieldErrs, 3)

		fields := make(map[string]string)
		for _, fe := range fieldErrs {
			fields[fe.Field] = fe.Message
		}
		assert.Contains(t, fields, "session_type")
		assert.Contains(t, fields, "option")
		assert.Contains(t, fields, "difficulty")
	})

	t.Run("json names used in messages", func(t *testing.T) {
		err := v.Validate(sampleRequest{SessionType: models.SessionPractice, Count: 1})
		require.Error(t, err)

		var fieldErrs ValidationErrors
		require.True(t, errors.As(err, &fieldErrs))
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "user_id", fieldErrs[0].Field)
		assert.Equal(t, "is required", fieldErrs[0].Message)
	})

	t.Run("range bounds enforced", func(t *testing.T) {
		err := v.Validate(sampleRequest{
			UserID:      "user-1",
			SessionType: models.SessionPractice,
			Count:       500,
		})
		require.Error(t, err)
	})
}
