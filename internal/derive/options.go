package derive

import (
	"strings"

	"github.com/grayfield/photodex/internal/models"
)

// ParseOptions parses the bracketed [Key:Value][Key2:Value2] option markup
// attached to a line item. Segments without a colon are silently dropped;
// parse order is preserved and duplicates are kept.
func ParseOptions(raw string) []models.Option {
	var options []models.Option
	segments := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '[' || r == ']'
	})
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		options = append(options, models.Option{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return options
}
