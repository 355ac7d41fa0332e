package cucumber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"drivebank/internal/cli"
	"drivebank/internal/store"
	"drivebank/internal/testutil"
)

// featureState holds scenario state for the CLI features.
type featureState struct {
	t          *testing.T
	workDir    string
	configPath string
	source     *testutil.FixtureSource
	stdout     bytes.Buffer
	stderr     bytes.Buffer
	exitCode   int
	bankBytes  []byte
}

// InitializeScenario wires the steps to fresh state per scenario.
func InitializeScenario(t *testing.T, ctx *godog.ScenarioContext) {
	state := &featureState{t: t}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^a question source with chapters "([^"]*)"$`, state.aQuestionSourceWithChapters)
	ctx.Step(`^chapter "([^"]*)" serves broken question pages$`, state.chapterServesBrokenPages)
	ctx.Step(`^the config is invalid$`, state.theConfigIsInvalid)
	ctx.Step(`^I run "drivebank ?([^"]*)"$`, state.iRunCommand)
	ctx.Step(`^I note the bank file contents$`, state.iNoteTheBankFile)
	ctx.Step(`^the exit code is zero$`, state.theExitCodeIsZero)
	ctx.Step(`^the exit code is non-zero$`, state.theExitCodeIsNonZero)
	ctx.Step(`^the bank contains chapters "([^"]*)"$`, state.theBankContainsChapters)
	ctx.Step(`^the bank file is unchanged$`, state.theBankFileIsUnchanged)
	ctx.Step(`^the output reports a skip in chapter "([^"]*)"$`, state.theOutputReportsSkip)
	ctx.Step(`^the output lists these commands:$`, state.theOutputListsCommands)
	ctx.Step(`^the error message points to the invalid field$`, state.theErrorPointsToInvalidField)
}

func (s *featureState) reset() {
	s.workDir = s.t.TempDir()
	s.configPath = filepath.Join(s.workDir, "drivebank.yml")
	s.source = nil
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = 0
	s.bankBytes = nil
}

func (s *featureState) bankPath() string {
	return filepath.Join(s.workDir, "bank.json")
}

func (s *featureState) aQuestionSourceWithChapters(list string) error {
	chapters := strings.Split(list, ",")
	pages := map[string][][]testutil.FixtureQuestion{}
	for _, chapter := range chapters {
		pages[chapter] = [][]testutil.FixtureQuestion{{
			{
				ID:      "q" + chapter + "a",
				Text:    fmt.Sprintf("Question for chapter %s?", chapter),
				Options: []string{"Yes", "No"},
				Answer:  "A",
			},
		}}
	}
	s.source = testutil.StartFixtureSource(s.t, pages)

	var quoted []string
	for _, chapter := range chapters {
		quoted = append(quoted, fmt.Sprintf("%q", chapter))
	}
	content := fmt.Sprintf(`version: 1
source:
  base_url: %s
  chapters: [%s]
  min_interval_ms: 1
storage:
  path: %s
  image_dir: %s
archive:
  path: %s
`,
		s.source.BaseURL(),
		strings.Join(quoted, ", "),
		s.bankPath(),
		filepath.Join(s.workDir, "images"),
		filepath.Join(s.workDir, "runs.duckdb"),
	)
	return os.WriteFile(s.configPath, []byte(content), 0o644)
}

func (s *featureState) chapterServesBrokenPages(chapter string) error {
	if s.source == nil {
		return fmt.Errorf("no question source started")
	}
	s.source.BreakPage(fmt.Sprintf("/Post/q%sa.htm", chapter))
	return nil
}

func (s *featureState) theConfigIsInvalid() error {
	return os.WriteFile(s.configPath, []byte("version: 1\npolicy: carry-on\n"), 0o644)
}

func (s *featureState) iRunCommand(argLine string) error {
	args := strings.Fields(argLine)
	if len(args) > 0 && args[0] != "--help" && args[0] != "help" {
		args = append(args, "--config", s.configPath)
	}
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = cli.Run(args, &s.stdout, &s.stderr)
	return nil
}

func (s *featureState) iNoteTheBankFile() error {
	data, err := os.ReadFile(s.bankPath())
	if err != nil {
		return fmt.Errorf("read bank file: %w", err)
	}
	s.bankBytes = data
	return nil
}

func (s *featureState) theExitCodeIsZero() error {
	if s.exitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d\nstderr: %s", s.exitCode, s.stderr.String())
	}
	return nil
}

func (s *featureState) theExitCodeIsNonZero() error {
	if s.exitCode == 0 {
		return fmt.Errorf("expected a non-zero exit code\nstdout: %s", s.stdout.String())
	}
	return nil
}

func (s *featureState) theBankContainsChapters(list string) error {
	bankStore, err := store.NewJSONStore(s.bankPath())
	if err != nil {
		return err
	}
	loaded, err := bankStore.Load()
	if err != nil {
		return fmt.Errorf("load bank: %w", err)
	}
	for _, chapter := range strings.Split(list, ",") {
		if len(loaded.Chapter(chapter)) == 0 {
			return fmt.Errorf("expected chapter %s in bank, have %v", chapter, loaded.Chapters())
		}
	}
	return nil
}

func (s *featureState) theBankFileIsUnchanged() error {
	if s.bankBytes == nil {
		return fmt.Errorf("bank file contents were not noted")
	}
	data, err := os.ReadFile(s.bankPath())
	if err != nil {
		return fmt.Errorf("read bank file: %w", err)
	}
	if !bytes.Equal(data, s.bankBytes) {
		return fmt.Errorf("bank file changed between runs")
	}
	return nil
}

func (s *featureState) theOutputReportsSkip(chapter string) error {
	if !strings.Contains(s.stdout.String(), "skipped") || !strings.Contains(s.stdout.String(), "chapter "+chapter) {
		return fmt.Errorf("expected a skip for chapter %s in output:\n%s", chapter, s.stdout.String())
	}
	return nil
}

func (s *featureState) theOutputListsCommands(table *godog.Table) error {
	for _, row := range table.Rows {
		name := strings.TrimSpace(row.Cells[0].Value)
		if !strings.Contains(s.stdout.String(), name) {
			return fmt.Errorf("expected command %q in output:\n%s", name, s.stdout.String())
		}
	}
	return nil
}

func (s *featureState) theErrorPointsToInvalidField() error {
	if !strings.Contains(s.stderr.String(), "policy") {
		return fmt.Errorf("expected the invalid field in stderr:\n%s", s.stderr.String())
	}
	return nil
}
