package symbol

// Well-known names used by the deducer and the bytecode emitter.
var (
	// Wildcard is the name-def-tree wildcard "_", which binds nothing.
	Wildcard = Intern("_")
	// SelfState is the implicit name bound to a proc's carried state inside
	// its "next" function.
	SelfState = Intern("state")
	// Max and Zero are the builtin attributes resolvable on any sized bits
	// type keyword, e.g. "u8::MAX".
	Max  = Intern("MAX")
	Zero = Intern("ZERO")
	// Config, Next, Init name the three functions every proc declares.
	Config = Intern("config")
	Next   = Intern("next")
	Init   = Intern("init")
)
