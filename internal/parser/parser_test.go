package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/hdltools/rtlbridge/internal/ir"
)

const counterSource = `
library ieee;
use ieee.std_logic_1164.all;
use ieee.numeric_std.all;

entity counter is
  port (
    clk   : in  std_logic;
    rst_n : in  std_logic;
    en    : in  std_logic;
    count : out std_logic_vector(7 downto 0)
  );
end entity counter;

architecture rtl of counter is
  signal count_r : std_logic_vector(7 downto 0) := (others => '0');
begin
  process(clk, rst_n)
  begin
    if rst_n = '0' then
      count_r <= (others => '0');
    elsif rising_edge(clk) then
      if en = '1' then
        count_r <= count_r + 1;
      end if;
    end if;
  end process;

  count <= count_r;
end architecture rtl;
`

func TestParseCounter(t *testing.T) {
	file, err := Parse(counterSource)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if file.Entity.Name != "counter" {
		t.Fatalf("entity name = %q, want counter", file.Entity.Name)
	}
	if len(file.Entity.Ports) != 4 {
		t.Fatalf("got %d ports, want 4", len(file.Entity.Ports))
	}
	count := file.Entity.Ports[3]
	if count.Dir != ir.DirOut {
		t.Fatalf("count direction = %v, want out", count.Dir)
	}
	vec, ok := count.Type.(ir.VectorType)
	if !ok || vec.High != 7 || vec.Low != 0 {
		t.Fatalf("count type = %#v, want vector [7:0]", count.Type)
	}

	arch := file.Arch
	if arch == nil {
		t.Fatal("expected an architecture")
	}
	if len(arch.Signals) != 1 || arch.Signals[0].Name != "count_r" {
		t.Fatalf("signals = %#v, want count_r", arch.Signals)
	}
	if _, ok := arch.Signals[0].Init.(*ir.Aggregate); !ok {
		t.Fatalf("count_r init = %#v, want aggregate", arch.Signals[0].Init)
	}
	if len(arch.Concurrent) != 2 {
		t.Fatalf("got %d concurrent statements, want 2", len(arch.Concurrent))
	}
	proc, ok := arch.Concurrent[0].(*ir.Process)
	if !ok {
		t.Fatalf("first statement = %T, want process", arch.Concurrent[0])
	}
	if len(proc.Sensitivity) != 2 || proc.Sensitivity[0] != "clk" || proc.Sensitivity[1] != "rst_n" {
		t.Fatalf("sensitivity = %v, want [clk rst_n]", proc.Sensitivity)
	}
	ifStmt, ok := proc.Body[0].(*ir.If)
	if !ok {
		t.Fatalf("process body starts with %T, want if", proc.Body[0])
	}
	if len(ifStmt.Branches) != 2 {
		t.Fatalf("if has %d branches, want 2 (if + elsif)", len(ifStmt.Branches))
	}
	edge, ok := ifStmt.Branches[1].Cond.(*ir.Call)
	if !ok || edge.Name != "rising_edge" {
		t.Fatalf("elsif condition = %#v, want rising_edge call", ifStmt.Branches[1].Cond)
	}
	if _, ok := arch.Concurrent[1].(*ir.ContinuousAssign); !ok {
		t.Fatalf("second statement = %T, want continuous assignment", arch.Concurrent[1])
	}
}

func TestParseEnumDeclaration(t *testing.T) {
	src := `
entity fsm is
  port (clk : in std_logic; done : out std_logic);
end fsm;

architecture rtl of fsm is
  type state_t is (IDLE, RUN, HALT);
  signal state : state_t;
begin
  process(clk)
  begin
    if rising_edge(clk) then
      case state is
        when IDLE => state <= RUN;
        when RUN | HALT => state <= IDLE;
        when others => state <= IDLE;
      end case;
    end if;
  end process;
end rtl;
`
	file, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	arch := file.Arch
	if len(arch.Enums) != 1 {
		t.Fatalf("got %d enum types, want 1", len(arch.Enums))
	}
	et := arch.Enums[0]
	if et.Name != "state_t" || len(et.Literals) != 3 || et.Literals[2] != "HALT" {
		t.Fatalf("enum = %#v, want state_t (IDLE, RUN, HALT)", et)
	}
	if _, ok := arch.Signals[0].Type.(ir.EnumType); !ok {
		t.Fatalf("state type = %#v, want enum", arch.Signals[0].Type)
	}
	proc := arch.Concurrent[0].(*ir.Process)
	inner := proc.Body[0].(*ir.If)
	caseStmt, ok := inner.Branches[0].Body[0].(*ir.Case)
	if !ok {
		t.Fatalf("clocked branch starts with %T, want case", inner.Branches[0].Body[0])
	}
	if len(caseStmt.Arms) != 2 || !caseStmt.HasDefault {
		t.Fatalf("case has %d arms (default %v), want 2 arms and a default", len(caseStmt.Arms), caseStmt.HasDefault)
	}
	if len(caseStmt.Arms[1].Patterns) != 2 {
		t.Fatalf("second arm has %d patterns, want 2", len(caseStmt.Arms[1].Patterns))
	}
}

func TestParseConditionalAssignment(t *testing.T) {
	src := `
entity mux is
  port (a, b, sel : in std_logic; y : out std_logic);
end mux;

architecture rtl of mux is
begin
  y <= a when sel = '1' else b;
end rtl;
`
	file, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	assign := file.Arch.Concurrent[0].(*ir.ContinuousAssign)
	sel, ok := assign.Value.(*ir.Select)
	if !ok {
		t.Fatalf("value = %#v, want conditional", assign.Value)
	}
	if _, ok := sel.Cond.(*ir.Binary); !ok {
		t.Fatalf("condition = %#v, want comparison", sel.Cond)
	}
}

func TestParseSelectedAssignmentDegrades(t *testing.T) {
	src := `
entity dec is
  port (sel : in std_logic_vector(1 downto 0); y : out std_logic_vector(3 downto 0));
end dec;

architecture rtl of dec is
begin
  with sel select
    y <= "0001" when "00",
         "0010" when "01",
         "0100" when "10",
         "1000" when others;
end rtl;
`
	file, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	raw, ok := file.Arch.Concurrent[0].(*ir.RawConcurrent)
	if !ok {
		t.Fatalf("statement = %T, want raw construct", file.Arch.Concurrent[0])
	}
	if raw.Construct != "selected signal assignment" {
		t.Fatalf("construct = %q", raw.Construct)
	}
	if !strings.HasPrefix(raw.Text, "with sel select") || !strings.HasSuffix(raw.Text, ";") {
		t.Fatalf("verbatim text not preserved: %q", raw.Text)
	}
}

func TestParsePrecedence(t *testing.T) {
	src := `
entity p is
  port (a, b, c : in std_logic_vector(3 downto 0); y : out std_logic_vector(3 downto 0));
end p;

architecture rtl of p is
begin
  y <= a + b * c and c;
end rtl;
`
	file, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	value := file.Arch.Concurrent[0].(*ir.ContinuousAssign).Value
	top, ok := value.(*ir.Binary)
	if !ok || top.Op != ir.OpAnd {
		t.Fatalf("top operator = %#v, want and", value)
	}
	add, ok := top.LHS.(*ir.Binary)
	if !ok || add.Op != ir.OpAdd {
		t.Fatalf("lhs = %#v, want addition", top.LHS)
	}
	mul, ok := add.RHS.(*ir.Binary)
	if !ok || mul.Op != ir.OpMul {
		t.Fatalf("addition rhs = %#v, want multiplication", add.RHS)
	}
}

func TestParseConcatIsLoosest(t *testing.T) {
	src := `
entity c is
  port (a, b : in std_logic_vector(3 downto 0); y : out std_logic_vector(8 downto 0));
end c;

architecture rtl of c is
begin
  y <= a & b + 1 & '0';
end rtl;
`
	file, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	concat, ok := file.Arch.Concurrent[0].(*ir.ContinuousAssign).Value.(*ir.Concat)
	if !ok {
		t.Fatal("expected a concatenation at the top")
	}
	if len(concat.Parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(concat.Parts))
	}
	if _, ok := concat.Parts[1].(*ir.Binary); !ok {
		t.Fatalf("middle part = %#v, want b + 1", concat.Parts[1])
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name      string
		source    string
		wantMsg   string
		construct string
	}{
		{
			name: "generic clause",
			source: `entity g is
  generic (WIDTH : integer := 8);
  port (a : in std_logic);
end g;`,
			wantMsg:   "unsupported construct",
			construct: "generic clause",
		},
		{
			name:      "package declaration",
			source:    `package pkg is end pkg;`,
			wantMsg:   "unsupported construct",
			construct: "package declaration",
		},
		{
			name: "component instantiation",
			source: `entity top is
  port (a : in std_logic);
end top;
architecture rtl of top is
begin
  u0 : sub port map (x => a);
end rtl;`,
			wantMsg:   "unsupported construct",
			construct: "component instantiation",
		},
		{
			name: "generate statement",
			source: `entity top is
  port (a : in std_logic);
end top;
architecture rtl of top is
begin
  gen : if true generate
  end generate;
end rtl;`,
			wantMsg:   "unsupported construct",
			construct: "generate statement",
		},
		{
			name: "undeclared identifier",
			source: `entity u is
  port (a : in std_logic; y : out std_logic);
end u;
architecture rtl of u is
begin
  y <= a and ghost;
end rtl;`,
			wantMsg: `undeclared identifier "ghost"`,
		},
		{
			name: "duplicate port",
			source: `entity d is
  port (a : in std_logic; a : out std_logic);
end d;`,
			wantMsg: `duplicate port name "a"`,
		},
		{
			name: "duplicate signal",
			source: `entity d is
  port (a : in std_logic);
end d;
architecture rtl of d is
  signal a : std_logic;
begin
end rtl;`,
			wantMsg: `duplicate signal name "a"`,
		},
		{
			name: "indexed name",
			source: `entity x is
  port (a : in std_logic_vector(3 downto 0); y : out std_logic);
end x;
architecture rtl of x is
begin
  y <= a(0);
end rtl;`,
			wantMsg:   "unsupported construct",
			construct: "indexed name",
		},
		{
			name: "architecture entity mismatch",
			source: `entity a is
  port (x : in std_logic);
end a;
architecture rtl of b is
begin
end rtl;`,
			wantMsg: "is bound to entity",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.source)
			if err == nil {
				t.Fatal("expected an error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if !strings.Contains(perr.Message, tc.wantMsg) {
				t.Fatalf("message %q does not contain %q", perr.Message, tc.wantMsg)
			}
			if perr.Construct != tc.construct {
				t.Fatalf("construct = %q, want %q", perr.Construct, tc.construct)
			}
			if perr.Line == 0 {
				t.Fatal("error carries no line number")
			}
		})
	}
}

func TestParseErrorLine(t *testing.T) {
	src := "entity e is\n  port (a : in std_logic);\nend e;\narchitecture rtl of e is\nbegin\n  y <= a;\nend rtl;\n"
	_, err := Parse(src)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Line != 6 {
		t.Fatalf("error line = %d, want 6", perr.Line)
	}
}

func TestContextClausesSkipped(t *testing.T) {
	src := `
library ieee;
use ieee.std_logic_1164.all;

entity passthrough is
  port (a : in std_logic; y : out std_logic);
end passthrough;
`
	file, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if file.Arch != nil {
		t.Fatal("expected no architecture")
	}
}

func TestParsePortDirections(t *testing.T) {
	src := `
entity dirs is
  port (
    a : in     std_logic;
    b : out    std_logic;
    c : inout  std_logic;
    d : buffer std_logic
  );
end dirs;
`
	file, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []ir.Direction{ir.DirIn, ir.DirOut, ir.DirInOut, ir.DirBuffer}
	if len(file.Entity.Ports) != len(want) {
		t.Fatalf("got %d ports, want %d", len(file.Entity.Ports), len(want))
	}
	for i, p := range file.Entity.Ports {
		if p.Dir != want[i] {
			t.Errorf("port %s: direction %s, want %s", p.Name, p.Dir, want[i])
		}
	}
}

func TestLexSelectedNames(t *testing.T) {
	tokens, err := NewLexer(`use ieee.std_logic_1164.all;`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	dots := 0
	for _, tok := range tokens {
		if tok.Kind == TokenDot {
			dots++
		}
	}
	if dots != 2 {
		t.Fatalf("got %d dot tokens, want 2", dots)
	}
}

func TestCaseInsensitiveKeywords(t *testing.T) {
	src := `
ENTITY inv IS
  PORT (a : IN std_logic; y : OUT std_logic);
END ENTITY inv;

ARCHITECTURE rtl OF inv IS
BEGIN
  y <= NOT a;
END ARCHITECTURE rtl;
`
	file, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	un, ok := file.Arch.Concurrent[0].(*ir.ContinuousAssign).Value.(*ir.Unary)
	if !ok || un.Op != ir.OpNot {
		t.Fatal("expected a negation")
	}
}
