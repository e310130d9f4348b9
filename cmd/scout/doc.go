// Command scout is the CLI for the listing discovery pipeline: it runs
// discovery passes, browses and rates stored listings, inspects run history,
// and manages configuration.
package main
