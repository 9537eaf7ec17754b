package cli

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/tgienger/deck/internal/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to out
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     out,
	}
}

// Handle prints a one-line message chosen by the error code and returns err unchanged
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	msg := errors.Message(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeNetwork:
		fmt.Fprintf(h.Out, "❌ %s\n", msg)

	case errors.ErrCodeUnauthorized:
		fmt.Fprintf(h.Out, "❌ %s\n", msg)
		fmt.Fprintf(h.Out, "Run 'deck login' to sign in again.\n")

	case errors.ErrCodeNotFound:
		fmt.Fprintf(h.Out, "❌ Not found: %s\n", msg)

	case errors.ErrCodeValidation, errors.ErrCodeInvalidInput:
		fmt.Fprintf(h.Out, "❌ %s\n", msg)

	case errors.ErrCodeConflict:
		fmt.Fprintf(h.Out, "❌ Conflict: %s\n", msg)

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "❌ Invalid configuration: %s\n", msg)
		if deckErr := asDeckError(err); deckErr != nil && deckErr.Details["path"] != nil {
			fmt.Fprintf(h.Out, "Check %v or pass --config.\n", deckErr.Details["path"])
		}

	case errors.ErrCodeStorage:
		fmt.Fprintf(h.Out, "❌ Local database error: %s\n", msg)

	default:
		fmt.Fprintf(h.Out, "❌ Error: %v\n", err)
	}

	// If verbose mode, show full error details
	if h.Verbose {
		if deckErr := asDeckError(err); deckErr != nil {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", deckErr.ToJSON())
		}
	}
	return err
}

func asDeckError(err error) *errors.DeckError {
	var deckErr *errors.DeckError
	if stderrors.As(err, &deckErr) {
		return deckErr
	}
	return nil
}
