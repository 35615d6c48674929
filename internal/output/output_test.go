package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/cro/internal/models"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestInfo(t *testing.T) {
	u, out, _ := newTestUI()
	u.Info("hello %s", "world")
	assert.Contains(t, out.String(), "hello world")
}

func TestSuccess(t *testing.T) {
	u, out, _ := newTestUI()
	u.Success("done %d", 42)
	assert.Contains(t, out.String(), "done 42")
}

func TestWarning(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Warning("careful %s", "now")
	assert.Contains(t, errOut.String(), "careful now")
}

func TestError(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Error("failed %s", "badly")
	assert.Contains(t, errOut.String(), "failed badly")
}

func TestVerboseLog_Enabled(t *testing.T) {
	u, out, _ := newTestUI()
	u.Verbose = true
	u.VerboseLog("detail %d", 1)
	assert.Contains(t, out.String(), "detail 1")
}

func TestVerboseLog_Disabled(t *testing.T) {
	u, out, _ := newTestUI()
	u.Verbose = false
	u.VerboseLog("detail %d", 1)
	assert.Empty(t, out.String())
}

func TestDryRunMsg_Enabled(t *testing.T) {
	u, _, errOut := newTestUI()
	u.DryRun = true
	u.DryRunMsg("would create %s", "file")
	assert.Contains(t, errOut.String(), "[DRY-RUN]")
	assert.Contains(t, errOut.String(), "would create file")
}

func TestDryRunMsg_Disabled(t *testing.T) {
	u, _, errOut := newTestUI()
	u.DryRun = false
	u.DryRunMsg("would create %s", "file")
	assert.Empty(t, errOut.String())
}

func TestColorHelpers(t *testing.T) {
	// Color helpers should return non-empty strings
	assert.NotEmpty(t, Cyan("test"))
	assert.NotEmpty(t, Green("test"))
	assert.NotEmpty(t, Yellow("test"))
	assert.NotEmpty(t, Red("test"))
}

func TestResultColor(t *testing.T) {
	for _, r := range []models.Result{models.ResultPass, models.ResultWarn, models.ResultFail, models.ResultReview} {
		assert.Contains(t, ResultColor(r), string(r))
	}
	assert.Equal(t, "N/A", ResultColor(models.ResultNA))
}

func TestScoreColor(t *testing.T) {
	assert.Equal(t, "n/a", ScoreColor(nil))
	v := 0.625
	assert.Contains(t, ScoreColor(&v), "62.5%")
}

func TestWeightColor(t *testing.T) {
	assert.Contains(t, WeightColor(0.5), "+0.500")
	assert.Contains(t, WeightColor(-0.25), "-0.250")
	assert.Equal(t, "+0.000", WeightColor(0))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd\u2026", Truncate("abcdefgh", 5))
	assert.Equal(t, "héll\u2026", Truncate("héllo wörld", 5))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestRunSummaryAndTable(t *testing.T) {
	u, out, _ := newTestUI()
	score := 0.5
	run := &models.Run{
		ID:  "01J00000000000000000000000",
		URL: "https://example.com/",
		Summary: models.Summary{
			Score:  &score,
			Counts: map[models.Result]int{models.ResultPass: 1, models.ResultFail: 1},
		},
		Checks: []models.CheckRow{
			{Category: "Techniek", Tip: "Favicon", Result: models.ResultPass, Evidence: "found", Priority: "3"},
			{Category: "Inhoud", Tip: "Inhoud boven de vouw", Result: models.ResultFail, Evidence: "Not detected early", Priority: "1"},
		},
	}

	u.RunSummary(run)
	require.NoError(t, u.RunTable(run))

	result := out.String()
	assert.Contains(t, result, "https://example.com/")
	assert.Contains(t, result, "50.0%")
	assert.Contains(t, result, "Favicon")
	assert.Contains(t, result, "Not detected early")
	assert.Less(t, strings.Index(result, "Favicon"), strings.Index(result, "Inhoud boven de vouw"))
}

func TestTable(t *testing.T) {
	u, out, _ := newTestUI()
	table := u.Table([]string{"Tip", "Result"})
	require.NotNil(t, table)

	table.Append([]string{"favicon", "PASS"})
	table.Append([]string{"sticky cta", "REVIEW"})
	err := table.Render()
	require.NoError(t, err)

	result := out.String()
	assert.Contains(t, result, "favicon")
	assert.Contains(t, result, "sticky cta")
}
