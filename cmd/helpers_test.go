package cmd

import (
	"bytes"
	"testing"

	"github.com/joescharf/cro/internal/output"
)

// resetDeps drops the lazily opened stores and restores flag variables so
// tests do not leak state into each other.
func resetDeps(t *testing.T) {
	t.Helper()
	dataStore = nil
	feedbackStore = nil

	verbose = false
	dryRun = false
	configForce = false

	analyzeFormat = formatTable
	analyzeOut = ""
	analyzeChecklist = ""
	analyzeNoSave = false

	feedbackRating = 0
	feedbackSuccess = false
	feedbackComment = ""
	feedbackLimit = 20

	historyLimit = 20
	historyURL = ""
	showFormat = formatTable
	showOut = ""
	checklistPath = ""

	t.Cleanup(func() {
		if dataStore != nil {
			_ = dataStore.Close()
			dataStore = nil
		}
		feedbackStore = nil
		dryRun = false
	})
}

// captureUI replaces the shared UI with one writing to buffers.
func captureUI(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	ui = &output.UI{Out: out, ErrOut: errOut}
	return out, errOut
}
