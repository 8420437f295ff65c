package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/hdltools/rtlbridge/internal/sem"
)

const counterSource = `
entity counter is
  port (clk, reset : in std_logic; count : out std_logic_vector(3 downto 0));
end counter;
architecture rtl of counter is
  signal count_r : std_logic_vector(3 downto 0);
begin
  process(clk, reset)
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

func TestParseDialect(t *testing.T) {
	cases := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"legacy", Legacy, false},
		{"strict", Strict, false},
		{"", Strict, false},
		{"verilog", Strict, true},
	}
	for _, tc := range cases {
		got, err := ParseDialect(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseDialect(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if err == nil && got != tc.want {
			t.Fatalf("ParseDialect(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTranspileBothDialects(t *testing.T) {
	legacy, diags, err := Transpile(counterSource, Legacy, Options{})
	if err != nil {
		t.Fatalf("Transpile legacy: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if !strings.Contains(legacy, "module counter") || !strings.Contains(legacy, "always @(posedge clk or posedge reset)") {
		t.Fatalf("legacy output:\n%s", legacy)
	}
	strict, _, err := Transpile(counterSource, Strict, Options{})
	if err != nil {
		t.Fatalf("Transpile strict: %v", err)
	}
	if !strings.Contains(strict, "always_ff") || !strings.Contains(strict, "logic [3:0] count_r;") {
		t.Fatalf("strict output:\n%s", strict)
	}
}

func TestTranspileParseErrorWrapped(t *testing.T) {
	_, _, err := Transpile("entity broken", Legacy, Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(err.Error(), "parse: ") {
		t.Fatalf("err = %v, want parse-stage prefix", err)
	}
}

func TestStrictWidthEscalation(t *testing.T) {
	src := `
entity w is
  port (a : in std_logic_vector(3 downto 0); y : out std_logic_vector(7 downto 0));
end w;
architecture rtl of w is
begin
  y <= a;
end rtl;
`
	if _, _, err := Transpile(src, Legacy, Options{}); err != nil {
		t.Fatalf("default mode should not fail: %v", err)
	}
	_, _, err := Transpile(src, Legacy, Options{StrictWidth: true})
	var aerr *sem.AnalysisError
	if !errors.As(err, &aerr) || aerr.Rule != sem.RuleWidthMismatch {
		t.Fatalf("err = %v, want fatal width mismatch", err)
	}
}

func TestAnalyzeReport(t *testing.T) {
	u, err := ParseAndLower(counterSource)
	if err != nil {
		t.Fatalf("ParseAndLower: %v", err)
	}
	report := Analyze(u)
	for _, want := range []string{
		"entity counter (3 ports)",
		"architecture rtl",
		"signal count_r: vector [3:0], reg",
		"sequential, clock clk",
		"async reset reset active high",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}
