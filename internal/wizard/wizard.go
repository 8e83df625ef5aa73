// Package wizard runs the multi-step create/edit forms. Each step owns a set
// of form fields; advancing validates only that set.
package wizard

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"freightdesk/internal/access"
	"freightdesk/internal/model"
	"freightdesk/internal/notify"
)

type Step struct {
	Title string
	// Fields are Go struct paths of F, e.g. "Address.Zip".
	Fields []string
}

type Config[F any, T any] struct {
	Steps []Step
	// Linear restricts header jumps to completed steps and the active one.
	Linear   bool
	Hook     *access.Hook[T]
	Service  string
	Notifier notify.Notifier
	// Payload converts the form before submit; the form itself is sent when nil.
	Payload func(F) any
}

type Wizard[F any, T any] struct {
	cfg Config[F, T]

	mu        sync.Mutex
	form      F
	active    int
	completed map[int]struct{}
	editID    string
	errors    []FieldError
}

func New[F any, T any](cfg Config[F, T]) (*Wizard[F, T], error) {
	if len(cfg.Steps) == 0 {
		return nil, fmt.Errorf("wizard needs at least one step: %w", model.ErrInvalidInput)
	}
	if cfg.Hook == nil {
		return nil, fmt.Errorf("wizard needs a data-access hook: %w", model.ErrInvalidInput)
	}

	return &Wizard[F, T]{cfg: cfg, completed: map[int]struct{}{}}, nil
}

// OpenCreate starts a blank form on the first step.
func (w *Wizard[F, T]) OpenCreate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	var zero F
	w.reset(zero, "")
}

// OpenEdit pre-fills the form for the record id and returns to the first step.
func (w *Wizard[F, T]) OpenEdit(id string, form F) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.reset(form, id)
}

func (w *Wizard[F, T]) reset(form F, id string) {
	w.form = form
	w.editID = id
	w.active = 0
	w.completed = map[int]struct{}{}
	w.errors = nil
}

func (w *Wizard[F, T]) Form() F {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Edit mutates the form in place.
func (w *Wizard[F, T]) Edit(fn func(form *F)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.form)
}

func (w *Wizard[F, T]) Editing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editID != ""
}

func (w *Wizard[F, T]) Steps() []Step {
	return slices.Clone(w.cfg.Steps)
}

func (w *Wizard[F, T]) ActiveStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *Wizard[F, T]) IsLast() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active == len(w.cfg.Steps)-1
}

// CompletedSteps returns completed step indexes in ascending order.
func (w *Wizard[F, T]) CompletedSteps() []int {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]int, 0, len(w.completed))
	for i := range w.completed {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

func (w *Wizard[F, T]) Progress() (completed int, total int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.completed), len(w.cfg.Steps)
}

// FieldErrors are the failures of the last validation.
func (w *Wizard[F, T]) FieldErrors() []FieldError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.errors)
}

// Next validates the active step. On success the step is marked completed
// and the wizard advances; otherwise nothing moves.
func (w *Wizard[F, T]) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.validateActive(); err != nil {
		return err
	}

	w.completed[w.active] = struct{}{}
	if w.active < len(w.cfg.Steps)-1 {
		w.active++
	}
	return nil
}

// Prev moves back one step without validating.
func (w *Wizard[F, T]) Prev() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active > 0 {
		w.active--
	}
}

func (w *Wizard[F, T]) CanJump(step int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canJump(step)
}

func (w *Wizard[F, T]) canJump(step int) bool {
	if step < 0 || step >= len(w.cfg.Steps) {
		return false
	}
	if !w.cfg.Linear || step == w.active {
		return true
	}
	_, done := w.completed[step]
	return done
}

// GoTo jumps to a step header.
func (w *Wizard[F, T]) GoTo(step int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.canJump(step) {
		return fmt.Errorf("step %d: %w", step, model.ErrStepLocked)
	}
	w.active = step
	return nil
}

// Submit creates or updates the record from the last step. Wizard state
// errors are returned without calling the backend; backend outcomes come
// back in the envelope and are toasted by the hook.
func (w *Wizard[F, T]) Submit(ctx context.Context) (model.Envelope[T], error) {
	w.mu.Lock()
	if w.active != len(w.cfg.Steps)-1 {
		w.mu.Unlock()
		return model.Envelope[T]{}, model.ErrNotOnLastStep
	}
	if err := w.validateActive(); err != nil {
		w.mu.Unlock()
		return model.Envelope[T]{}, err
	}
	w.completed[w.active] = struct{}{}

	var payload any = w.form
	if w.cfg.Payload != nil {
		payload = w.cfg.Payload(w.form)
	}
	id := w.editID
	w.mu.Unlock()

	if id != "" {
		return w.cfg.Hook.UpdateData(ctx, w.cfg.Service, id, payload), nil
	}
	return w.cfg.Hook.CreateData(ctx, w.cfg.Service, payload), nil
}

func (w *Wizard[F, T]) validateActive() error {
	step := w.cfg.Steps[w.active]

	fieldErrs, err := validateFields(w.form, step.Fields)
	if err != nil {
		return err
	}
	w.errors = fieldErrs
	if len(fieldErrs) == 0 {
		return nil
	}

	messages := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		messages[i] = fe.Message
	}
	notify.Error(w.cfg.Notifier, fmt.Sprintf("%s: %s", step.Title, strings.Join(messages, "; ")))

	return fmt.Errorf("%s: %w", step.Title, model.ErrStepInvalid)
}
