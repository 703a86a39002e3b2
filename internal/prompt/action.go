// Package prompt composes the prompts prompt-pilot sends: the initial context of a conversation and the request for
// a CONVENTIONS.md document.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedAction is returned for action names outside the fixed set
var ErrUnsupportedAction = errors.New("unsupported action")

// Action is what the operator wants done. The set is closed; every value has its own instructions.
type Action int

const (
	Implement Action = iota + 1
	Debug
	Optimize
	Refactor
	Review
	Integrate
	Document
	Test
	Deploy
)

// Actions lists every action in menu order
var Actions = []Action{Implement, Debug, Optimize, Refactor, Review, Integrate, Document, Test, Deploy}

func (a Action) String() string {
	switch a {
	case Implement:
		return "Implement"
	case Debug:
		return "Debug"
	case Optimize:
		return "Optimize"
	case Refactor:
		return "Refactor"
	case Review:
		return "Review"
	case Integrate:
		return "Integrate"
	case Document:
		return "Document"
	case Test:
		return "Test"
	case Deploy:
		return "Deploy"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction converts a menu label to an Action, ignoring case
func ParseAction(name string) (Action, error) {
	for _, a := range Actions {
		if strings.EqualFold(strings.TrimSpace(name), a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnsupportedAction, name)
}

// ActionNames returns the menu labels of all actions
func ActionNames() []string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = a.String()
	}
	return names
}

// Instructions returns the guidance given to the model for this action
func (a Action) Instructions() (string, error) {
	switch a {
	case Implement:
		return "Plan the implementation step by step. Ask about anything ambiguous before committing to a design.", nil
	case Debug:
		return "Identify the most likely root causes, how to confirm each one, and the smallest fix. Ask for logs or reproduction steps if they are missing.", nil
	case Optimize:
		return "Find the bottlenecks first, propose measurable improvements, and call out any trade-offs in readability or memory.", nil
	case Refactor:
		return "Improve structure without changing behaviour. List the refactoring steps in an order that keeps the code working after each one.", nil
	case Review:
		return "Review for correctness, security, readability and consistency with the surrounding code. Rank findings by severity.", nil
	case Integrate:
		return "Describe how the pieces connect, the interfaces involved, configuration needed, and how to verify the integration.", nil
	case Document:
		return "Write documentation aimed at the next maintainer: purpose, usage, configuration and caveats.", nil
	case Test:
		return "Propose a test plan covering normal cases, edge cases and failure modes, then the tests themselves.", nil
	case Deploy:
		return "Lay out the deployment steps, prerequisites, rollback plan and what to monitor afterwards.", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAction, a)
	}
}
