// Package cli implements the interactive terminal wizard behind `leadflow fill`.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/presentation/tui"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/wizard"
)

// Commands accepted at any prompt.
const (
	CmdNext   = ":next"
	CmdBack   = ":back"
	CmdSubmit = ":submit"
	CmdQuit   = ":quit"
)

var labels = map[string]string{
	domain.FieldName:          "Full name",
	domain.FieldPhone:         "Phone number",
	domain.FieldEmail:         "Email",
	domain.FieldCity:          "City",
	domain.FieldProjectType:   "Project type",
	domain.FieldProductType:   "Product type",
	domain.FieldMeasurements:  "Measurements",
	domain.FieldPreferences:   "Preferences",
	domain.FieldMessage:       "Message",
	domain.FieldPreferredDate: "Preferred date",
	domain.FieldPreferredTime: "Preferred time",
}

// Service is the part of the wizard facade the terminal drives.
type Service interface {
	Open(ctx context.Context, variant string) (*leadflow.View, error)
	SetField(ctx context.Context, sessionID, name, value string) (*leadflow.View, error)
	Advance(ctx context.Context, sessionID string) (*leadflow.View, error)
	Retreat(ctx context.Context, sessionID string) (*leadflow.View, error)
	Submit(ctx context.Context, sessionID string) (*wizard.SubmitResult, error)
	Close(ctx context.Context, sessionID string) error
}

// FillOptions configures a terminal wizard run.
type FillOptions struct {
	Variant string
	In      io.Reader
	Out     io.Writer
	// Plain disables the progress bar and toast boxes (non-TTY output).
	Plain bool
}

// errQuit ends the run without an error.
// maxLineSize bounds how much of one input line is buffered. Longer lines are
// discarded and re-prompted like any other oversized value.
const maxLineSize = 1 << 20

var errQuit = errors.New("quit")

type filler struct {
	svc  Service
	opts FillOptions
	in   *bufio.Reader
	view *leadflow.View
}

// Fill walks one wizard session on the terminal. Empty input keeps a field's value.
// It returns nil when the lead was sent, the user quit, or input ended.
func Fill(ctx context.Context, svc Service, opts FillOptions) error {
	if opts.Variant == "" {
		opts.Variant = wizard.VariantQuote
	}

	view, err := svc.Open(ctx, opts.Variant)
	if err != nil {
		return err
	}
	id := view.State.SessionID
	defer svc.Close(context.WithoutCancel(ctx), id)

	f := &filler{svc: svc, opts: opts, in: bufio.NewReader(opts.In), view: view}
	fmt.Fprintf(opts.Out, "Commands: %s %s %s %s\n", CmdNext, CmdBack, CmdSubmit, CmdQuit)

	err = f.run(ctx)
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (f *filler) run(ctx context.Context) error {
	id := f.view.State.SessionID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.header()

		moved, err := f.fillStep(ctx)
		if err != nil {
			return err
		}
		if moved {
			continue
		}

		if !f.view.State.IsLastStep() {
			if _, err := f.move(f.svc.Advance(ctx, id)); err != nil {
				return err
			}
			continue
		}

		sent, err := f.confirm(ctx)
		if err != nil || sent {
			return err
		}
	}
}

// fillStep prompts every field of the current step. moved reports that a command
// changed the step (or re-rendered it) before the step was completed.
func (f *filler) fillStep(ctx context.Context) (moved bool, err error) {
	id := f.view.State.SessionID
	for _, field := range f.view.Step.Fields {
		for {
			line, err := f.prompt(labels[field], f.view.State.Field(field))
			if err != nil {
				return false, err
			}
			if !strings.HasPrefix(line, ":") {
				if line != "" {
					view, err := f.svc.SetField(ctx, id, field, line)
					if errors.Is(err, wizard.ErrInputTooLarge) || errors.Is(err, wizard.ErrInvalidUTF8) {
						fmt.Fprintf(f.opts.Out, "%v\n", err)
						continue
					}
					if err != nil {
						return false, err
					}
					f.view = view
				}
				break
			}

			handled, err := f.command(ctx, line)
			if err != nil {
				return false, err
			}
			if handled {
				return true, nil
			}
		}
	}
	return false, nil
}

// confirm waits on the last step for a command; sent is true once the lead went out.
func (f *filler) confirm(ctx context.Context) (sent bool, err error) {
	for {
		line, err := f.prompt(fmt.Sprintf("%s to send, %s to review", CmdSubmit, CmdBack), "")
		if err != nil {
			return false, err
		}
		if line == CmdSubmit {
			return f.submit(ctx)
		}
		handled, err := f.command(ctx, line)
		if err != nil || handled {
			return false, err
		}
	}
}

// command applies a navigation command. handled is false for unknown input.
func (f *filler) command(ctx context.Context, cmd string) (handled bool, err error) {
	id := f.view.State.SessionID
	switch cmd {
	case CmdQuit:
		return false, errQuit
	case CmdBack:
		return f.move(f.svc.Retreat(ctx, id))
	case CmdNext:
		return f.move(f.svc.Advance(ctx, id))
	case CmdSubmit:
		if !f.view.State.IsLastStep() {
			fmt.Fprintln(f.opts.Out, tui.Hint("Submit is available on the last step."))
			return false, nil
		}
		sent, err := f.submit(ctx)
		if err != nil {
			return false, err
		}
		if sent {
			return false, errQuit
		}
		return true, nil
	default:
		fmt.Fprintf(f.opts.Out, "Unknown command %q\n", cmd)
		return false, nil
	}
}

// move keeps the last good view when a navigation call fails.
func (f *filler) move(view *leadflow.View, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	f.view = view
	return true, nil
}

// submit sends the lead and prints the toast. Validation and delivery failures keep
// the session open for another try.
func (f *filler) submit(ctx context.Context) (sent bool, err error) {
	res, err := f.svc.Submit(ctx, f.view.State.SessionID)
	if res != nil && res.Notification != nil {
		f.toast(*res.Notification)
	}

	var (
		verr *domain.ValidationError
		serr *domain.SubmissionError
	)
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &verr), errors.As(err, &serr), errors.Is(err, domain.ErrSubmissionInFlight):
		if res != nil && res.State != nil {
			f.view.State = res.State
		}
		return false, nil
	default:
		return false, err
	}
}

func (f *filler) header() {
	s := f.view.State
	if f.opts.Plain {
		fmt.Fprintf(f.opts.Out, "\nStep %d of %d: %s (%.0f%%)\n", s.CurrentStep, s.TotalSteps, f.view.Step.Title, f.view.Progress)
		return
	}
	fmt.Fprintf(f.opts.Out, "\n%s\n", tui.StepHeader(s.CurrentStep, s.TotalSteps, f.view.Step.Title, f.view.Progress))
}

func (f *filler) toast(n domain.Notification) {
	if f.opts.Plain {
		fmt.Fprintf(f.opts.Out, "[%s] %s: %s\n", n.Kind, n.Title, n.Message)
		return
	}
	fmt.Fprintln(f.opts.Out, tui.Toast(n))
}

func (f *filler) prompt(text, current string) (string, error) {
	for {
		if current != "" {
			fmt.Fprintf(f.opts.Out, "%s [%s]: ", text, current)
		} else {
			fmt.Fprintf(f.opts.Out, "%s: ", text)
		}
		line, err := f.readLine()
		if errors.Is(err, wizard.ErrInputTooLarge) {
			fmt.Fprintf(f.opts.Out, "%v\n", err)
			continue
		}
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}

// readLine reads one line of any length, keeping at most maxLineSize bytes of it.
func (f *filler) readLine() (string, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := f.in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("input error: %w", err)
		}
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineSize {
				tooLong, buf = true, nil
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", fmt.Errorf("%w: line longer than %d bytes", wizard.ErrInputTooLarge, maxLineSize)
	}
	return string(buf), nil
}
