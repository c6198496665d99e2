package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// SampleConfig is the default config.yaml written by Init.
const SampleConfig = `# jira-issue-editor configuration
# Edit the values below for your Jira Cloud instance.

jira:
  base_url: https://yourcompany.atlassian.net
  default_project: PROJ  # used by 'create' when --project is omitted

editor:
  debounce: 100ms         # select edits within this window are coalesced
  request_timeout: 30s    # searches that time out show no results
  rich_text: false        # edit multiline fields as rich text
  epic_issue_types: [Epic]
  # display:
  #   lozenge: '{{ .Text | upper }}'
  #   relativeDate: '{{ formatJiraDate .Text "2006-01-02" }}'

log:
  file: jira-issue-editor.log
  format: text            # text or json
  debug: false
`

// SampleSecrets is the default secrets.yaml written by Init.
const SampleSecrets = `# jira-issue-editor secrets, do not commit
# Generate an API token at:
#   https://id.atlassian.com/manage-profile/security/api-tokens
# Values may also reference the environment or a file:
#   api_token: env:JIRA_API_TOKEN
#   api_token: file:/run/secrets/jira-token

jira:
  email: you@yourcompany.com
  api_token: your-api-token-here
`

// Init creates dir with sample config and secrets files. Existing files are
// left alone.
func Init(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := writeIfNotExists(ConfigPath(dir), SampleConfig); err != nil {
		return err
	}
	return writeIfNotExists(SecretsPath(dir), SampleSecrets)
}

// DirExists returns true if dir exists and is a directory.
func DirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func writeIfNotExists(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // already exists, don't overwrite
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
