package main

import (
	"bytes"
	"strings"
	"testing"
)

func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := DefaultEnv()
	env.Stdout = &stdout
	env.Stderr = &stderr
	env.Stdin = strings.NewReader("")
	return env, &stdout, &stderr
}

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantStdout string
		wantStderr string
	}{
		{name: "no command lists commands", args: nil, wantStdout: "Commands:"},
		{name: "convert lists flags", args: []string{"convert"}, wantStdout: "--image-uploader"},
		{name: "convert lists themes", args: []string{"convert"}, wantStdout: "orangeHeart"},
		{name: "doctor", args: []string{"doctor"}, wantStdout: "--json"},
		{name: "version", args: []string{"version"}, wantStdout: "mdnice version"},
		{name: "unknown command", args: []string{"render"}, wantStderr: "Unknown command: render"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv()
			runHelp(tt.args, env)

			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout %q should contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr %q should contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
