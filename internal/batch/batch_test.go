package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hdltools/rtlbridge/internal/config"
)

const counterSource = `entity counter is
  port (
    clk   : in  std_logic;
    reset : in  std_logic;
    count : out std_logic_vector(7 downto 0)
  );
end counter;

architecture rtl of counter is
  signal count_r : std_logic_vector(7 downto 0);
begin
  process (clk, reset)
  begin
    if reset = '1' then
      count_r <= (others => '0');
    elsif rising_edge(clk) then
      count_r <= count_r + 1;
    end if;
  end process;
  count <= count_r;
end rtl;
`

const brokenSource = `entity broken is
  port (clk : in std_logic);
end broken;

architecture rtl of broken is
begin
  y <= clk;
end rtl;
`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunCompilesTree(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "counter.vhd", counterSource)
	writeSource(t, dir, filepath.Join("sub", "counter2.vhdl"), counterSource)

	cfg := config.DefaultConfig()
	cfg.Dialect = "strict"

	report, err := Run(context.Background(), dir, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RunID == "" {
		t.Fatal("report has no run ID")
	}
	if report.Converted != 2 || report.Failed != 0 {
		t.Fatalf("converted=%d failed=%d, want 2/0", report.Converted, report.Failed)
	}
	if len(report.Files) != 2 {
		t.Fatalf("got %d file results, want 2", len(report.Files))
	}
	for _, fr := range report.Files {
		if fr.Status != "ok" {
			t.Fatalf("%s: status %q, error %q", fr.Path, fr.Status, fr.Error)
		}
		if fr.Entity != "counter" {
			t.Fatalf("%s: entity %q", fr.Path, fr.Entity)
		}
		if !strings.HasSuffix(fr.Output, ".sv") {
			t.Fatalf("%s: output %q, want .sv", fr.Path, fr.Output)
		}
		out, err := os.ReadFile(fr.Output)
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if !strings.Contains(string(out), "always_ff @(posedge clk or posedge reset)") {
			t.Fatalf("output missing clocked block:\n%s", out)
		}
	}
	// Results come back ordered by input path.
	if report.Files[0].Path > report.Files[1].Path {
		t.Fatalf("results out of order: %q before %q", report.Files[0].Path, report.Files[1].Path)
	}
}

func TestRunRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "counter.vhd", counterSource)
	writeSource(t, dir, "broken.vhd", brokenSource)

	cfg := config.DefaultConfig()
	cfg.Dialect = "legacy"

	report, err := Run(context.Background(), dir, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Converted != 1 || report.Failed != 1 {
		t.Fatalf("converted=%d failed=%d, want 1/1", report.Converted, report.Failed)
	}
	var failed *FileResult
	for i := range report.Files {
		if report.Files[i].Status == "error" {
			failed = &report.Files[i]
		}
	}
	if failed == nil {
		t.Fatal("no failed entry in report")
	}
	if !strings.Contains(failed.Error, "undeclared") {
		t.Fatalf("failure error %q, want undeclared signal", failed.Error)
	}
	if failed.Output != "" {
		t.Fatalf("failed file has output %q", failed.Output)
	}
}

func TestRunOutputDir(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "build")
	writeSource(t, dir, "counter.vhd", counterSource)

	cfg := config.DefaultConfig()
	cfg.Dialect = "legacy"
	cfg.Output.Dir = outDir

	report, err := Run(context.Background(), dir, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := filepath.Join(outDir, "counter.v")
	if report.Files[0].Output != want {
		t.Fatalf("output %q, want %q", report.Files[0].Output, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("output not written: %v", err)
	}
}

func TestRunOutputDirKeepsSubdirsApart(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "build")
	writeSource(t, dir, filepath.Join("a", "top.vhd"), counterSource)
	writeSource(t, dir, filepath.Join("b", "top.vhd"), counterSource)

	cfg := config.DefaultConfig()
	cfg.Dialect = "legacy"
	cfg.Output.Dir = outDir

	report, err := Run(context.Background(), dir, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Converted != 2 {
		t.Fatalf("converted=%d, want 2", report.Converted)
	}
	for _, want := range []string{
		filepath.Join(outDir, "a", "top.v"),
		filepath.Join(outDir, "b", "top.v"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("missing output %s: %v", want, err)
		}
	}
	if report.Files[0].Output == report.Files[1].Output {
		t.Fatalf("outputs collide: %s", report.Files[0].Output)
	}
}

func TestGateReport(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "counter.vhd", counterSource)
	writeSource(t, dir, "broken.vhd", brokenSource)

	cfg := config.DefaultConfig()
	cfg.Dialect = "legacy"

	report, err := Run(context.Background(), dir, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	result, err := Gate(context.Background(), report, cfg)
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if !result.Failed() {
		t.Fatal("gate passed despite a compile failure")
	}
	found := false
	for _, v := range result.Violations {
		if v.Rule == "compile-failure" && strings.HasSuffix(v.File, "broken.vhd") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no compile-failure violation in %+v", result.Violations)
	}
}

func TestWatchRecompilesOnWrite(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Dialect = "legacy"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan FileResult, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, cfg, func(fr FileResult) { results <- fr })
	}()

	// Give the watcher a moment to register before the first write.
	time.Sleep(200 * time.Millisecond)
	writeSource(t, dir, "counter.vhd", counterSource)

	select {
	case fr := <-results:
		if fr.Status != "ok" {
			t.Fatalf("watch compile failed: %s", fr.Error)
		}
		if _, err := os.Stat(filepath.Join(dir, "counter.v")); err != nil {
			t.Fatalf("output not written: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no compile result within 5s")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Watch returned %v, want context.Canceled", err)
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, cfg, func(FileResult) {})
	}()
	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Watch returned %v, want context.Canceled", err)
	}
}
