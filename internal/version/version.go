package version

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the NexConsult backend
	Version = "2.0.0"

	// ProjectURL is the project homepage
	ProjectURL = "https://nexconsult.com.br"

	// ContactEmail for API usage questions
	ContactEmail = "contato@nexconsult.com.br"
)

// UserAgent returns a properly formatted User-Agent string for outbound requests
func UserAgent() string {
	return fmt.Sprintf("nexconsult/%s (%s; %s/%s; +%s; %s)",
		Version,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
		ProjectURL,
		ContactEmail,
	)
}

// GetVersion returns the current version
func GetVersion() string {
	return Version
}
