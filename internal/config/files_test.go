package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveSourcesRecursiveGlob(t *testing.T) {
	root := t.TempDir()
	core := filepath.Join(root, "rtl", "core.vhd")
	deep := filepath.Join(root, "rtl", "sub", "alu.vhdl")
	skip := filepath.Join(root, "rtl", "notes.txt")
	writeFile(t, core, "-- core")
	writeFile(t, deep, "-- alu")
	writeFile(t, skip, "notes")

	cfg := Config{Sources: []string{"rtl/**/*.vhd", "rtl/**/*.vhdl", "rtl/*.vhd"}}
	cfg.applyDefaults()

	files, err := cfg.ResolveSources(root)
	if err != nil {
		t.Fatalf("ResolveSources: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %v, want core.vhd and alu.vhdl", files)
	}
	if files[0] != core || files[1] != deep {
		t.Fatalf("got %v, want sorted [%s %s]", files, core, deep)
	}
}

func TestResolveSourcesExcludeAndIgnore(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep.vhd")
	excl := filepath.Join(root, "tb_keep.vhd")
	ign := filepath.Join(root, "scratch.vhd")
	writeFile(t, keep, "--")
	writeFile(t, excl, "--")
	writeFile(t, ign, "--")

	cfg := Config{
		Sources: []string{"*.vhd"},
		Exclude: []string{"tb_*.vhd"},
		Batch:   BatchConfig{IgnorePatterns: []string{"scratch.vhd"}},
	}
	files, err := cfg.ResolveSources(root)
	if err != nil {
		t.Fatalf("ResolveSources: %v", err)
	}
	if len(files) != 1 || files[0] != keep {
		t.Fatalf("got %v, want only %s", files, keep)
	}
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "rtlbridge.json")
	writeFile(t, path, `{"policy": {"rules": {"width-mismatch": "error"}}}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Dialect != "strict" {
		t.Fatalf("default dialect = %q, want strict", cfg.Dialect)
	}
	if len(cfg.Sources) == 0 {
		t.Fatal("default sources not applied")
	}
	if cfg.GetRuleSeverity("width-mismatch", "warning") != "error" {
		t.Fatal("configured severity not honored")
	}
	if cfg.GetRuleSeverity("mixed-sensitivity", "warning") != "warning" {
		t.Fatal("unconfigured rule should fall back to the default severity")
	}
}

func TestLoadSearchPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "rtlbridge.json"), `{"dialect": "legacy"}`)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dialect != "legacy" {
		t.Fatalf("dialect = %q, want legacy from project config", cfg.Dialect)
	}
}

func TestRuleEnabled(t *testing.T) {
	cfg := Config{Policy: PolicyConfig{Rules: map[string]string{
		"mixed-sensitivity": "off",
		"width-mismatch":    "error",
	}}}
	if cfg.IsRuleEnabled("mixed-sensitivity") {
		t.Fatal("off rule reported enabled")
	}
	if !cfg.IsRuleEnabled("width-mismatch") || !cfg.IsRuleEnabled("unknown") {
		t.Fatal("configured and unknown rules should be enabled")
	}
}
