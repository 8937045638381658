// Package status classifies the numeric status codes returned by the
// TRACE32 Remote API into a closed, typed error hierarchy.
//
// # Taxonomy
//
// Every known code belongs to exactly one Kind. Kinds form a fixed tree:
//
//	Generic (514)
//	├── Client (-114)            transport and argument failures
//	├── Standard (515)           device and debugger status codes
//	└── Function (-116)          function specific failures
//	    ├── FunctionGeneral      FN1..FN4
//	    ├── Register             0x101x..0x104x
//	    ├── Memory               0x106x..0x107x
//	    ├── Variable             0x108x
//	    ├── Breakpoint           0x109x..0x10ax
//	    └── MmuTranslation       0x10bx
//
// Kinds are values declared once at package initialization. A Kind without
// a code (the function area groups) only groups its leaves and never
// resolves on its own.
//
// # Resolution
//
// A Resolver maps a raw code to a Kind by scanning the category bases in
// declaration order: the direct leaves of a base first, then the base's own
// code. The first match wins, so codes shared by two kinds always resolve
// to the same one. Results are memoized in a small LRU cache.
//
// # Errors
//
// Failed calls surface as *Error values. An Error keeps the raw code and
// matches its Kind and every ancestor with errors.Is:
//
//	err := c.Cmd("Go")
//	if errors.Is(err, status.TargetRunning) { ... }
//	if errors.Is(err, status.Standard) { ... }
package status
