package cmd

import (
	"testing"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "ptyterm" {
		t.Errorf("root use = %q, want %q", rootCmd.Use, "ptyterm")
	}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "config"} {
		if !names[want] {
			t.Errorf("subcommand %q not registered", want)
		}
	}
}

func TestConfigSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range configCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"save", "list", "show", "delete"} {
		if !names[want] {
			t.Errorf("config subcommand %q not registered", want)
		}
	}
}

func TestRunCommandArgs(t *testing.T) {
	// run takes at most one positional argument (a profile name).
	if err := runCmd.Args(runCmd, []string{"a", "b"}); err == nil {
		t.Errorf("two positional args should be rejected")
	}
	if err := runCmd.Args(runCmd, nil); err != nil {
		t.Errorf("zero args should be accepted: %v", err)
	}
}
