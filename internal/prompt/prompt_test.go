package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	a, err := ParseAction("implement")
	require.NoError(t, err)
	require.Equal(t, Implement, a)

	a, err = ParseAction(" Deploy ")
	require.NoError(t, err)
	require.Equal(t, Deploy, a)

	_, err = ParseAction("Celebrate")
	require.ErrorIs(t, err, ErrUnsupportedAction)
	require.ErrorContains(t, err, "Celebrate")
}

func TestActionNames(t *testing.T) {
	require.Equal(t, []string{
		"Implement", "Debug", "Optimize", "Refactor", "Review",
		"Integrate", "Document", "Test", "Deploy",
	}, ActionNames())
}

func TestInstructions_EveryActionHasInstructions(t *testing.T) {
	for _, a := range Actions {
		instructions, err := a.Instructions()
		require.NoError(t, err, a.String())
		require.NotEmpty(t, instructions)
	}

	_, err := Action(0).Instructions()
	require.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestInitial(t *testing.T) {
	sel := Selection{
		Action:         Implement,
		Focus:          "Login System",
		Subject:        "Python",
		Context:        "Build OAuth.",
		SensitiveFiles: []string{"./secrets.env", "./deploy.yaml"},
	}

	text, err := Initial(sel, nil)
	require.NoError(t, err)

	require.Contains(t, text, "Action: Implement\nFocus: Login System\nSubject: Python\nContext:\nBuild OAuth.\n")
	require.Contains(t, text, "Sensitive Files: ./secrets.env, ./deploy.yaml")
	require.Contains(t, text, "\nInstructions: Plan the implementation")
	require.NotContains(t, text, "Relevant knowledge")
}

func TestInitial_WithKnowledge(t *testing.T) {
	sel := Selection{Action: Review, Focus: "API Endpoint", Subject: "Go"}
	text, err := Initial(sel, []Knowledge{{Source: "docs/api.md", Content: "  GET /users returns a list\n"}})
	require.NoError(t, err)

	require.Contains(t, text, "\nRelevant knowledge:\n--- docs/api.md\nGET /users returns a list")
}

func TestInitial_UnsupportedAction(t *testing.T) {
	_, err := Initial(Selection{Action: Action(42)}, nil)
	require.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestConventions(t *testing.T) {
	text, err := Conventions("Action: Test, Focus: Vite, Subject: Vue.js", "cover the build config", []string{"vite.config.js"})
	require.NoError(t, err)

	require.Contains(t, text, `Based on the task description: "Action: Test, Focus: Vite, Subject: Vue.js"`)
	require.Contains(t, text, `the intent of the change: "cover the build config"`)
	require.Contains(t, text, "**Sensitive Files:** [vite.config.js]")
	require.Contains(t, text, "# Coding Conventions")
}

func TestTaskDescription(t *testing.T) {
	require.Equal(t, "Action: Debug, Focus: Vite, Subject: React",
		TaskDescription(Selection{Action: Debug, Focus: "Vite", Subject: "React"}))
}
