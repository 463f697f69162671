package config

import (
	"fmt"
	"strings"
)

const minSecretLength = 32

// Validate checks the settings the service cannot start without and
// returns every problem found in a single error.
func Validate(c Config) error {
	var problems []string

	if len(c.GetGitHubClientID()) < 10 {
		problems = append(problems, githubClientIDVar+" must be set to a valid GitHub client id")
	}
	if len(c.GetGitHubClientSecret()) < 10 {
		problems = append(problems, githubClientSecretVar+" must be set to a valid GitHub client secret")
	}
	if len(c.GetSessionSecret()) < minSecretLength {
		problems = append(problems, fmt.Sprintf("%s must be at least %d characters", sessionSecretVar, minSecretLength))
	}
	if c.GetMaxFileSize() < MB {
		problems = append(problems, maxFileSizeVar+" must be at least 1MB")
	}
	if c.GetSessionMaxAge() <= 0 {
		problems = append(problems, sessionMaxAgeVar+" must be positive")
	}
	if c.GetMaxArchiveEntries() <= 0 {
		problems = append(problems, maxArchiveEntriesVar+" must be positive")
	}
	if c.GetRateLimitWindow() <= 0 || c.GetRateLimitMaxRequests() <= 0 || c.GetUploadRateLimitMax() <= 0 {
		problems = append(problems, "rate limit window and maximums must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("[config Validate] invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
