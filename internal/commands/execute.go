package commands

import (
	"fmt"

	"github.com/sandeepkv93/flowd/internal/model"
)

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(model.QuickAdd) (Result, error)
	Progress func(ProgressArgs) (Result, error)
	Toggle   func(ToggleArgs) (Result, error)
	Sync     func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "add handler not configured"}
		}
		return handlers.Add(*cmd.Add)
	case TypeProgress:
		if handlers.Progress == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "progress handler not configured"}
		}
		return handlers.Progress(*cmd.Progress)
	case TypeToggle:
		if handlers.Toggle == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "toggle handler not configured"}
		}
		return handlers.Toggle(*cmd.Toggle)
	case TypeSync:
		if handlers.Sync == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "sync handler not configured"}
		}
		return handlers.Sync()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
