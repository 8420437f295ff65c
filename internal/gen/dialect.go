// Package gen emits a resolved design in one of two dialects. A
// single recursive emitter is parameterized by a profile value so the
// dialects cannot drift apart structurally.
package gen

// Dialect selects the output language profile.
type Dialect uint8

const (
	// Legacy targets the older dialect: wire/reg nets, @(*) headers,
	// plain case, expanded zero literals.
	Legacy Dialect = iota
	// Strict targets the modern dialect: logic nets, always_comb and
	// always_ff headers, unique case, typedef enums.
	Strict
)

func (d Dialect) String() string {
	if d == Strict {
		return "strict"
	}
	return "legacy"
}

// Extension is the conventional output file extension.
func (d Dialect) Extension() string {
	if d == Strict {
		return ".sv"
	}
	return ".v"
}

// profile is the keyword and formatting table for one dialect.
type profile struct {
	wireKeyword string
	regKeyword  string
	combHeader  string
	seqKeyword  string // always / always_ff
	uniqueCase  bool   // mark disjoint-literal cases
	packedZero  bool   // '0 shorthand instead of expanded bits
	realEnums   bool   // typedef enum instead of commented reg
}

var profiles = [...]profile{
	Legacy: {
		wireKeyword: "wire",
		regKeyword:  "reg",
		combHeader:  "always @(*)",
		seqKeyword:  "always",
	},
	Strict: {
		wireKeyword: "logic",
		regKeyword:  "logic",
		combHeader:  "always_comb",
		seqKeyword:  "always_ff",
		uniqueCase:  true,
		packedZero:  true,
		realEnums:   true,
	},
}
