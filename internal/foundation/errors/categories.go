package errors

// ErrorCategory is the broad class of a failure. It selects the exit code.
type ErrorCategory string

const (
	// CategoryConfig represents malformed or inconsistent build configuration.
	CategoryConfig ErrorCategory = "config"
	// CategoryValidation covers invalid usage and structural problems in reference tables.
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryNetwork represents raw transport failures while checking references.
	CategoryNetwork ErrorCategory = "network"

	// CategoryAssembly represents planner/assembler contract violations.
	CategoryAssembly   ErrorCategory = "assembly"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryLedger     ErrorCategory = "ledger"

	// CategoryReferences marks a validation run that finished with unresolved failures.
	CategoryReferences ErrorCategory = "references"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// categoryTraits holds the CLI behavior of a category.
type categoryTraits struct {
	exitCode int
	// defect categories hide their details unless the CLI runs verbose.
	defect bool
}

var categories = map[ErrorCategory]categoryTraits{
	CategoryValidation: {exitCode: 2},
	CategoryNotFound:   {exitCode: 3},
	CategoryReferences: {exitCode: 4},
	CategoryConfig:     {exitCode: 7},
	CategoryNetwork:    {exitCode: 8},
	CategoryInternal:   {exitCode: 10, defect: true},
	CategoryAssembly:   {exitCode: 11, defect: true},
	CategoryFileSystem: {exitCode: 11},
	CategoryLedger:     {exitCode: 11},
	CategoryRuntime:    {exitCode: 12},
}

// ExitCode returns the process exit code of the category, 1 when unknown.
func (c ErrorCategory) ExitCode() int {
	if t, ok := categories[c]; ok {
		return t.exitCode
	}
	return 1
}

// ErrorSeverity tells whether a failure stops the whole command or only the
// operation that raised it.
type ErrorSeverity string

const (
	SeverityFatal ErrorSeverity = "fatal"
	SeverityError ErrorSeverity = "error"
)

// ErrorContext is structured detail attached to an error.
type ErrorContext map[string]any

func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}
