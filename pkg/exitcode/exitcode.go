// Package exitcode provides standardized exit codes for texneat
package exitcode

// Exit codes for the texneat CLI. Validation and build failures are
// recoverable and actionable; input errors mean the tool could not even
// read or decode its inputs.
const (
	Success         = 0
	ValidationError = 1
	BuildError      = 1
	GeneralError    = 1
	InputError      = 2
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case ValidationError:
		return "Validation or build failure"
	case InputError:
		return "Unrecoverable input error"
	default:
		return "Unknown error"
	}
}
