package config

import "strings"

// normalize expands paths and lowercases selector fields so the rest of the
// codebase never has to re-trim user input.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Evaluation.Provider = strings.ToLower(strings.TrimSpace(c.Evaluation.Provider))
	c.Evaluation.APIKey = strings.TrimSpace(c.Evaluation.APIKey)
	c.Evaluation.BaseURL = strings.TrimSpace(c.Evaluation.BaseURL)
	c.Evaluation.Model = strings.TrimSpace(c.Evaluation.Model)

	c.Transcription.Mode = strings.ToLower(strings.TrimSpace(c.Transcription.Mode))
	c.Transcription.Binary = strings.TrimSpace(c.Transcription.Binary)
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)

	c.Dispatch.Mode = strings.ToLower(strings.TrimSpace(c.Dispatch.Mode))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
