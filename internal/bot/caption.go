package bot

import (
	"strings"
)

// captionFields are the placeholder names the template may reference.
var captionFields = []string{"quantity", "price", "limit_type"}

// RenderCaption substitutes the captured field values into the template.
//
// Substitution rules:
//  1. Known placeholders ({quantity}, {price}, {limit_type}) are replaced;
//     a missing value substitutes the empty string.
//  2. Unknown placeholders are left verbatim.
//  3. A template without any known placeholder is treated as a plain header
//     and the field values are appended as labelled lines below it.
func RenderCaption(template string, fields map[string]string) string {
	hasPlaceholder := false
	for _, name := range captionFields {
		if strings.Contains(template, "{"+name+"}") {
			hasPlaceholder = true
			break
		}
	}

	if !hasPlaceholder {
		var sb strings.Builder
		sb.WriteString(template)
		sb.WriteString("\n数量：")
		sb.WriteString(fields["quantity"])
		sb.WriteString("\n价格：")
		sb.WriteString(fields["price"])
		sb.WriteString("\n限制：")
		sb.WriteString(fields["limit_type"])
		return sb.String()
	}

	pairs := make([]string, 0, len(captionFields)*2)
	for _, name := range captionFields {
		pairs = append(pairs, "{"+name+"}", fields[name])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
