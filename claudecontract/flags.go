package claudecontract

// CLI flag names - update here when the CLI changes.
// These are the exact flag names as used by the claude CLI binary.
const (
	// FlagPrint runs the CLI in non-interactive mode: one response per
	// line of input, no terminal UI. Wingman always drives the CLI in
	// this mode.
	FlagPrint = "--print"

	// FlagOutputFormat selects the output format (see formats.go).
	FlagOutputFormat = "--output-format"

	// FlagVerbose enables verbose output.
	FlagVerbose = "--verbose"

	// FlagModel selects the Claude model to use.
	FlagModel = "--model"

	// FlagContinue continues the most recent conversation.
	FlagContinue = "--continue"

	// FlagResume resumes a specific session by ID.
	FlagResume = "--resume"
)
