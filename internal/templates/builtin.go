package templates

var builtins = Set{
	"go_test": {
		Description:    "go test: failing tests, panics, compiler errors and the package summary",
		IncludeRegex:   `^(--- FAIL|FAIL|panic:|\s+\S+\.go:\d+:|# |ok\s)`,
		TailParagraphs: 1,
	},
	"go_build": {
		Description:    "go build / go vet: file:line diagnostics",
		IncludeRegex:   `\.go:\d+(:\d+)?:|^# |cannot find package|no required module`,
		TailParagraphs: 0,
	},
	"pytest": {
		Description:    "pytest: failures, errors and the short test summary",
		IncludeRegex:   `^(FAILED|ERROR|E\s)|^_{3,} .* _{3,}$|Error|assert`,
		TailParagraphs: 2,
	},
	"jest": {
		Description:    "jest / vitest: failing suites, assertion messages and totals",
		IncludeRegex:   `(FAIL|✕|●|Expected|Received|Tests:|Test Suites:)`,
		TailParagraphs: 1,
	},
	"cargo": {
		Description:    "cargo build / cargo test: errors, warnings with locations and test results",
		IncludeRegex:   `^(error|warning)(\[\w+\])?:|^\s+--> |^test .* FAILED|^test result:|panicked at`,
		TailParagraphs: 1,
	},
	"tsc": {
		Description:    "TypeScript compiler: type errors",
		IncludeRegex:   `error TS\d+:|Found \d+ error`,
		TailParagraphs: 0,
	},
	"eslint": {
		Description:    "eslint: problem lines and the problem count",
		IncludeRegex:   `\s(error|warning)\s|✖ \d+ problem`,
		TailParagraphs: 1,
	},
	"make": {
		Description:    "make and generic compilers: errors and make failures",
		IncludeRegex:   `(?i)(error|fatal|undefined reference|\*\*\*)`,
		TailParagraphs: 1,
	},
	"errors": {
		Description:    "Any tool: lines mentioning errors, failures or exceptions, plus the last paragraph",
		IncludeRegex:   `(?i)(error|fail|fatal|exception|panic|traceback)`,
		TailParagraphs: 1,
	},
	"tail": {
		Description:             "Any tool: only the last three paragraphs, never suppressed",
		IncludeRegex:            `$^`,
		TailParagraphs:          3,
		SuppressOutputOnSuccess: Bool(false),
	},
}

// Builtins returns a copy of the built-in template set.
func Builtins() Set {
	return builtins.Clone()
}
