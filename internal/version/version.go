// ABOUTME: Version and product identification
// ABOUTME: Reported by the CLI, the sink plugin description and logs
package version

const (
	// Version is the release of this module
	Version = "0.1.0"
	// Product is the user-facing name
	Product = "Aerial"
	// Manufacturer identifies the authors in stream metadata
	Manufacturer = "Aerial Project"
)
