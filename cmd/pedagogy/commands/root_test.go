// ABOUTME: Tests for root CLI command and global flags
// ABOUTME: Verifies banner, dataset path flags, subcommand wiring and verbosity exclusivity

package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "pedagogy" {
		t.Errorf("Use = %q, want %q", cmd.Use, "pedagogy")
	}
	if !strings.Contains(cmd.Long, "█▀▀") {
		t.Error("Long description should contain ASCII banner")
	}
	for _, stage := range []string{"extract", "dialogues", "dpo", "export"} {
		if !strings.Contains(cmd.Long, stage) {
			t.Errorf("Long description should describe the %s stage", stage)
		}
	}
	if !cmd.SilenceUsage {
		t.Error("SilenceUsage should be true to prevent usage on errors")
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	cmd := NewRootCmd()

	tests := []struct {
		flagName  string
		shorthand string
		defValue  string
	}{
		{"verbose", "v", "false"},
		{"quiet", "q", "false"},
		{"config", "", ""},
		{"data-dir", "", "data"},
		{"documents", "", ""},
		{"dialogues", "", ""},
		{"dpo", "", ""},
		{"log-format", "", ""},
		{"log-file", "", ""},
		{"metrics-file", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("--%s shorthand = %q, want %q", tt.flagName, flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestRootCmd_DataDirResolvesDatasetFiles(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(t.TempDir(), "trees.jsonl")

	tests := []struct {
		name          string
		args          []string
		wantDocuments string
		wantDialogues string
		wantDPO       string
	}{
		{
			name:          "defaults under data",
			args:          nil,
			wantDocuments: filepath.Join("data", "documents.jsonl"),
			wantDialogues: filepath.Join("data", "dialogues.jsonl"),
			wantDPO:       filepath.Join("data", "dpo_dialogues.jsonl"),
		},
		{
			name:          "data-dir moves all three",
			args:          []string{"--data-dir", dir},
			wantDocuments: filepath.Join(dir, "documents.jsonl"),
			wantDialogues: filepath.Join(dir, "dialogues.jsonl"),
			wantDPO:       filepath.Join(dir, "dpo_dialogues.jsonl"),
		},
		{
			name:          "file flag overrides one",
			args:          []string{"--data-dir", dir, "--dpo", custom},
			wantDocuments: filepath.Join(dir, "documents.jsonl"),
			wantDialogues: filepath.Join(dir, "dialogues.jsonl"),
			wantDPO:       custom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			if err := cmd.PersistentFlags().Parse(tt.args); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			p := datasetPaths()
			if p.Documents != tt.wantDocuments {
				t.Errorf("Documents = %q, want %q", p.Documents, tt.wantDocuments)
			}
			if p.Dialogues != tt.wantDialogues {
				t.Errorf("Dialogues = %q, want %q", p.Dialogues, tt.wantDialogues)
			}
			if p.DPO != tt.wantDPO {
				t.Errorf("DPO = %q, want %q", p.DPO, tt.wantDPO)
			}
		})
	}
}

func TestRootCmd_VerboseQuietExclusive(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"verbose only", []string{"--verbose", "version"}, false},
		{"quiet only", []string{"-q", "version"}, false},
		{"verbose and quiet", []string{"-v", "--quiet", "version"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeRoot(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	registered := map[string]bool{}
	for _, sub := range cmd.Commands() {
		registered[sub.Name()] = true
	}
	for _, name := range []string{"extract", "dialogues", "dpo", "run", "stats", "export", "mcp", "version"} {
		if !registered[name] {
			t.Errorf("Subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_HelpListsStages(t *testing.T) {
	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	help := output.String()
	for _, want := range []string{"Usage:", "Available Commands:", "--data-dir", "--metrics-file"} {
		if !strings.Contains(help, want) {
			t.Errorf("Help output should contain %q", want)
		}
	}
}
