package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	contents := fmt.Sprintf(`[paths]
vault_dir = %q
staging_dir = %q
log_dir = %q

[logging]
format = "json"
level = "error"

[study]
log_enabled = true
database = %q
`,
		filepath.Join(base, "vault"),
		filepath.Join(base, "staging"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "study.db"),
	)
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (env *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("cardvault %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCreateListShow(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mustRun(t, "create", "Spanish", "--description", "Vocabulary", "--tag", "language", "--difficulty", "3")

	out := env.mustRun(t, "list")
	if !strings.Contains(out, "Spanish") || !strings.Contains(out, "language") {
		t.Fatalf("listing missing set:\n%s", out)
	}

	out = env.mustRun(t, "show", "Spanish")
	if !strings.Contains(out, "Vocabulary") || !strings.Contains(out, "Difficulty: 3") {
		t.Fatalf("show missing fields:\n%s", out)
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "create", "Spanish")

	if _, err := env.run(t, "create", "Spanish"); err == nil {
		t.Fatal("duplicate create should fail")
	}
}

func TestRenameAndDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "create", "Old")
	env.mustRun(t, "rename", "Old", "New")

	out := env.mustRun(t, "list")
	if strings.Contains(out, "Old") || !strings.Contains(out, "New") {
		t.Fatalf("rename not reflected:\n%s", out)
	}

	env.mustRun(t, "delete", "New")
	out = env.mustRun(t, "list")
	if strings.Contains(out, "New") {
		t.Fatalf("delete not reflected:\n%s", out)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "create", "Physics")

	archivePath := filepath.Join(env.baseDir, "physics.zip")
	env.mustRun(t, "export-set", "Physics", archivePath)

	out := env.mustRun(t, "import-set", archivePath)
	if !strings.Contains(out, "Physics 2") {
		t.Fatalf("conflicting import should auto-rename:\n%s", out)
	}

	out = env.mustRun(t, "list")
	if !strings.Contains(out, "Physics 2") {
		t.Fatalf("imported set missing:\n%s", out)
	}
}

func TestImportVaultMergeAndReplace(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "create", "Keep")

	archivePath := filepath.Join(env.baseDir, "vault.zip")
	env.mustRun(t, "export-vault", archivePath)

	env.mustRun(t, "create", "Extra")
	out := env.mustRun(t, "import-vault", archivePath, "--mode", "merge")
	if !strings.Contains(out, "Imported 1 set(s)") {
		t.Fatalf("merge output unexpected:\n%s", out)
	}

	out = env.mustRun(t, "import-vault", archivePath, "--mode", "replace")
	if !strings.Contains(out, "replaced") {
		t.Fatalf("replace output unexpected:\n%s", out)
	}
	out = env.mustRun(t, "list")
	if strings.Contains(out, "Extra") {
		t.Fatalf("replace should drop existing sets:\n%s", out)
	}

	if _, err := env.run(t, "import-vault", archivePath, "--mode", "bogus"); err == nil {
		t.Fatal("invalid mode should fail")
	}
}

func TestIntegrityAndStats(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "create", "Math")

	out := env.mustRun(t, "integrity")
	if !strings.Contains(out, "consistent") {
		t.Fatalf("integrity output unexpected:\n%s", out)
	}

	out = env.mustRun(t, "stats")
	if !strings.Contains(out, "1") {
		t.Fatalf("stats output unexpected:\n%s", out)
	}

	if err := os.Remove(filepath.Join(env.baseDir, "vault", "sets", "Math", "cards.json")); err != nil {
		t.Fatal(err)
	}
	if _, err := env.run(t, "integrity"); err == nil {
		t.Fatal("integrity should fail with missing cards.json")
	}
}

func TestIconsCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "icons", "list")
	if !strings.Contains(out, "default") {
		t.Fatalf("default icon set missing:\n%s", out)
	}

	env.mustRun(t, "icons", "generate", "science", "--background", "#204060")
	out = env.mustRun(t, "icons", "list")
	if !strings.Contains(out, "science") {
		t.Fatalf("generated set missing:\n%s", out)
	}

	env.mustRun(t, "icons", "delete", "science")
	if _, err := env.run(t, "icons", "delete", "default"); err == nil {
		t.Fatal("deleting default must fail")
	}
}

func TestStudyCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "create", "Math")

	env.mustRun(t, "study", "session", "Math", "--studied", "5", "--known", "3", "--duration", "4m")
	out := env.mustRun(t, "study", "summary", "Math")
	if !strings.Contains(out, "Sessions: 1") || !strings.Contains(out, "Cards studied: 5") {
		t.Fatalf("summary unexpected:\n%s", out)
	}

	out = env.mustRun(t, "study", "log", "Math")
	if !strings.Contains(out, "4m0s") {
		t.Fatalf("log unexpected:\n%s", out)
	}
}

func TestMediaAddAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "create", "Math")

	source := filepath.Join(env.baseDir, "diagram.png")
	if err := os.WriteFile(source, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := env.mustRun(t, "media", "add", "Math", source)
	if !strings.Contains(out, "images/diagram.png") {
		t.Fatalf("unexpected add output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(env.baseDir, "vault", "sets", "Math", "images", "diagram.png")); err != nil {
		t.Fatalf("media not stored: %v", err)
	}

	env.mustRun(t, "media", "remove", "Math", "diagram.png")
	if _, err := os.Stat(filepath.Join(env.baseDir, "vault", "sets", "Math", "images", "diagram.png")); !os.IsNotExist(err) {
		t.Fatal("media should be removed")
	}

	if _, err := env.run(t, "media", "add", "Math", source, "--kind", "document"); err == nil {
		t.Fatal("unknown media kind should fail")
	}
}

func TestConfigShowWithExplicitFile(t *testing.T) {
	env := setupCLITestEnv(t)
	out := env.mustRun(t, "config", "show")
	if !strings.Contains(out, env.configPath) {
		t.Fatalf("config show should name the source file:\n%s", out)
	}
	if !strings.Contains(out, "Study log: yes") {
		t.Fatalf("config show missing study state:\n%s", out)
	}
}
