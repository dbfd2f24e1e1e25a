package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/flowd/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeProgress Type = "progress"
	TypeToggle   Type = "toggle"
	TypeSync     Type = "sync"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// ProgressArgs sets a goal's value, or adds to it when Relative is set.
type ProgressArgs struct {
	GoalID   string
	Value    float64
	Relative bool
}

type ToggleArgs struct {
	TaskID string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *model.QuickAdd
	Progress *ProgressArgs
	Toggle   *ToggleArgs
}

// Parse reads one command line. Quick adds look like
//
//	task pay rent due:tomorrow p:P1 #home project:inbox
//
// and may be prefixed with "add". Relative dates resolve against now in loc.
func Parse(input string, now time.Time, loc *time.Location) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if loc == nil {
		loc = time.Local
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	if Type(head) == TypeAdd {
		if len(args) == 0 {
			return Command{}, invalid("add requires a kind and a title")
		}
		head, args = strings.ToLower(args[0]), args[1:]
	}

	switch {
	case model.QuickAddKind(head).IsValid():
		return parseAdd(input, model.QuickAddKind(head), args, now, loc)
	case Type(head) == TypeProgress:
		return parseProgress(input, args)
	case Type(head) == TypeToggle:
		return parseToggle(input, args)
	case Type(head) == TypeSync:
		return Command{Type: TypeSync, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, kind model.QuickAddKind, args []string, now time.Time, loc *time.Location) (Command, error) {
	q := model.QuickAdd{Kind: kind}
	var title []string
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "due:"):
			due, err := ParseDate(arg[len("due:"):], now, loc)
			if err != nil {
				return Command{}, err
			}
			q.Due = &due
		case strings.HasPrefix(lower, "p:"):
			p := model.Priority(strings.ToUpper(arg[len("p:"):]))
			if !p.IsValid() {
				return Command{}, invalid("unknown priority %q", arg[len("p:"):])
			}
			q.Priority = p
		case strings.HasPrefix(lower, "project:"):
			q.ProjectID = strings.TrimSpace(arg[len("project:"):])
			if q.ProjectID == "" {
				return Command{}, invalid("project requires an id")
			}
		case strings.HasPrefix(arg, "#") && len(arg) > 1:
			q.Tags = append(q.Tags, arg[1:])
		default:
			title = append(title, arg)
		}
	}
	q.Title = strings.TrimSpace(strings.Join(title, " "))
	if q.Title == "" {
		return Command{}, invalid("%s requires a title", kind)
	}
	q.Tags = model.NormalizeTags(q.Tags)
	return Command{Type: TypeAdd, Raw: raw, Add: &q}, nil
}

func parseProgress(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("progress requires a goal id and a value")
	}
	arg := args[1]
	relative := strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-")
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return Command{}, invalid("progress value %q is not a number", arg)
	}
	return Command{Type: TypeProgress, Raw: raw, Progress: &ProgressArgs{GoalID: args[0], Value: v, Relative: relative}}, nil
}

func parseToggle(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("toggle requires a task id")
	}
	return Command{Type: TypeToggle, Raw: raw, Toggle: &ToggleArgs{TaskID: args[0]}}, nil
}

// ParseDate accepts today, tomorrow, next-week, in-N-days, +Nd, YYYY-MM-DD and
// RFC 3339. Day forms resolve to midnight in loc.
func ParseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	today := model.CivilDay(now, loc)
	switch strings.ToLower(s) {
	case "":
		return time.Time{}, invalid("date is empty")
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "next-week":
		return today.AddDate(0, 0, 7), nil
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "in-") && strings.HasSuffix(lower, "-days") {
		if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(lower, "in-"), "-days")); err == nil && n >= 0 {
			return today.AddDate(0, 0, n), nil
		}
	}
	if strings.HasPrefix(lower, "+") && strings.HasSuffix(lower, "d") {
		if n, err := strconv.Atoi(lower[1 : len(lower)-1]); err == nil && n >= 0 {
			return today.AddDate(0, 0, n), nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("unrecognized date %q", s)
}
