package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of severity SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, severity: SeverityError, message: message}}
}

// WrapError starts an error that wraps cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = cause
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

// Fatal marks the error as stopping the whole command.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	err := b.err
	return &err
}

// ConfigError creates a configuration error. Configuration errors abort a build
// before any output is written.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError reports invalid usage or structural reference problems.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// NotFoundError creates an error for a document or category missing from the
// corpus. It fails one variant, not the build.
func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

// AssemblyError creates an error for a planner/assembler contract violation.
// These are programming errors, never user errors.
func AssemblyError(message string) *ErrorBuilder {
	return NewError(CategoryAssembly, message).Fatal()
}

func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message)
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// LedgerError creates a failure ledger persistence error.
func LedgerError(message string) *ErrorBuilder {
	return NewError(CategoryLedger, message)
}

// ReferencesError reports a validation run that ended with unresolved failures.
func ReferencesError(message string) *ErrorBuilder {
	return NewError(CategoryReferences, message)
}

func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
