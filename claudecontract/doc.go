// Package claudecontract is the single source of truth for the
// interface between Wingman and the claude CLI binary: flag names,
// output formats, and the stream event discriminants the backend
// decodes. When a CLI release changes its surface, only this package
// needs updating.
package claudecontract
