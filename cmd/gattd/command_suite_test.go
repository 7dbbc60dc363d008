package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/srg/bluegatt/internal/testutils"
)

// CommandTestSuite extends RegistrationSuite with command testing utilities.
type CommandTestSuite struct {
	testutils.RegistrationSuite
}

// WriteFile writes content into the test's temp dir and returns its path.
func (s *CommandTestSuite) WriteFile(name, content string) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600), "temp file MUST be written")
	return path
}

// ExecuteCommand runs the root command with args and returns stdout, stderr
// and the error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, string, error) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
