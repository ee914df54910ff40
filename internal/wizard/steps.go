// internal/wizard/steps.go
package wizard

import (
	"fmt"
	"math"
	"slices"
)

// ValidationResult lists the required fields a step is still missing.
type ValidationResult struct {
	Missing []string
}

func (r ValidationResult) OK() bool { return len(r.Missing) == 0 }

// StepMachine owns the current step pointer and the completed-step set.
// States are the integers 1..total; advance is guarded by a validator,
// retreat is not.
type StepMachine struct {
	total     int
	current   int
	completed map[int]struct{}
}

func NewStepMachine(total int) (*StepMachine, error) {
	if total < 1 {
		return nil, fmt.Errorf("step machine needs at least one step, got %d", total)
	}
	return &StepMachine{
		total:     total,
		current:   1,
		completed: make(map[int]struct{}),
	}, nil
}

func (m *StepMachine) Current() int { return m.current }

func (m *StepMachine) Total() int { return m.total }

func (m *StepMachine) IsFinalStep() bool { return m.current == m.total }

// Advance runs validate for the current step. A failing validator leaves
// both the pointer and the completed set untouched.
func (m *StepMachine) Advance(validate func() ValidationResult) (int, error) {
	if m.current >= m.total {
		return m.current, ErrAtFinalStep
	}

	if validate != nil {
		if result := validate(); !result.OK() {
			return m.current, &ValidationError{
				Step:    m.current,
				Missing: slices.Clone(result.Missing),
			}
		}
	}

	m.completed[m.current] = struct{}{}
	m.current++
	return m.current, nil
}

func (m *StepMachine) Retreat() int {
	if m.current > 1 {
		m.current--
	}
	return m.current
}

// Complete marks the current step done without moving the pointer. Used
// for the final step, which is committed by submission instead of advance.
func (m *StepMachine) Complete() {
	m.completed[m.current] = struct{}{}
}

func (m *StepMachine) ProgressPercent() int {
	return int(math.Round(100 * float64(m.current) / float64(m.total)))
}

func (m *StepMachine) CompletedSteps() []int {
	steps := make([]int, 0, len(m.completed))
	for step := range m.completed {
		steps = append(steps, step)
	}
	slices.Sort(steps)
	return steps
}

// Restore rebuilds the machine from persisted progress.
func (m *StepMachine) Restore(current int, completed []int) error {
	if current < 1 || current > m.total {
		return fmt.Errorf("step %d is outside [1, %d]", current, m.total)
	}
	restored := make(map[int]struct{}, len(completed))
	for _, step := range completed {
		if step < 1 || step > m.total {
			return fmt.Errorf("completed step %d is outside [1, %d]", step, m.total)
		}
		restored[step] = struct{}{}
	}

	m.current = current
	m.completed = restored
	return nil
}
