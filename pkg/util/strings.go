package util

import "strings"

// SanitizeFactName lowercases name and replaces every non-alphanumeric
// character with an underscore. Used to derive stable fact keys from object
// names (e.g. "Web Server 1" -> "web_server_1").
func SanitizeFactName(name string) string {
	name = strings.ToLower(name)
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
