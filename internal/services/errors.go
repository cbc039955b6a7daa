package services

import (
	"errors"
	"fmt"

	"github.com/studypath/practice-engine/internal/validator"
)

// ===== SERVICE ERRORS =====

var (
	// Session creation
	ErrInsufficientQuestions = errors.New("insufficient questions to build session")

	// State machine
	ErrDuplicateAnswer   = errors.New("question already answered in this session")
	ErrInvalidTransition = errors.New("invalid session state transition")
	ErrSessionCompleted  = errors.New("session is already completed")
	ErrSessionNotOwned   = errors.New("session does not belong to user")

	// Lookup
	ErrSessionNotFound  = errors.New("session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrProfileNotFound  = errors.New("user profile not found")

	// Import
	ErrUnsupportedImportFormat = errors.New("unsupported import file format")

	// Infrastructure
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageErr tags an underlying persistence failure so callers can classify
// it while keeping the original error in the chain.
func storageErr(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, errors.Join(ErrStorageUnavailable, err))
}

// ===== CLASSIFICATION HELPERS =====

func IsInsufficientQuestions(err error) bool {
	return errors.Is(err, ErrInsufficientQuestions)
}

func IsDuplicateAnswer(err error) bool {
	return errors.Is(err, ErrDuplicateAnswer)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrSessionCompleted)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrProfileNotFound)
}

func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

func IsValidation(err error) bool {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var fe validator.ValidationError
	return errors.As(err, &fe)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrSessionNotOwned)
}
