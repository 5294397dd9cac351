package normalize

import "strings"

// SanitizeColumn rewrites a spreadsheet column name into a valid warehouse
// identifier:
//   - "100000" becomes "100k", unless "1000000" is also present, which would
//     corrupt an already million-scaled label
//   - space, slash and hyphen become underscores
//   - parenthesis, asterisk, period and equals are stripped
//   - a leading digit gets an underscore prefix
func SanitizeColumn(name string) string {
	if strings.Contains(name, "100000") && !strings.Contains(name, "1000000") {
		name = strings.ReplaceAll(name, "100000", "100k")
	}

	replacer := strings.NewReplacer(
		" ", "_",
		"/", "_",
		"-", "_",
		"(", "",
		")", "",
		"*", "",
		".", "",
		"=", "",
	)
	name = replacer.Replace(name)

	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
