package testutil

import (
	"testing"
)

// Given, When, Then and And nest subtests so a failing duty-status story reads back as
// "Given a driver ten hours into a shift/When the break is logged/Then ...".
// Each level gets its own *testing.T, so a failed Then does not stop its sibling Whens.
func Given(t *testing.T, situation string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Given", situation, fn)
}

func When(t *testing.T, action string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "When", action, fn)
}

func Then(t *testing.T, outcome string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Then", outcome, fn)
}

// And continues the previous step with a further outcome or action.
func And(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "And", desc, fn)
}

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(keyword+" "+desc, fn)
}
