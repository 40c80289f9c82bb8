package discourse

import "strings"

// maxTagLength is the Discourse tag length limit.
const maxTagLength = 20

// CleanTag normalizes a source tag to Discourse constraints: the legacy
// "connector-" prefix is dropped and the name is clamped to the length limit.
func CleanTag(tag string) string {
	tag = strings.ReplaceAll(tag, "connector-", "")
	if len(tag) > maxTagLength {
		tag = tag[:maxTagLength]
	}
	return tag
}

// CleanTags normalizes a tag list, dropping entries that clean down to
// nothing.
func CleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if c := CleanTag(tag); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return cleaned
}
