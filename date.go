package dice

import "time"

// Layouts for CurrentFormattedDate.
const (
	DefaultDateFormat = "2006-01-02"
	DefaultTimeFormat = "15:04:05"
)

// now is replaced in tests.
var now = time.Now

// CurrentFormattedDate returns the current local date formatted with the
// time.Layout layout. An empty layout selects DefaultDateFormat.
func CurrentFormattedDate(layout string) string {
	if len(layout) == 0 {
		layout = DefaultDateFormat
	}
	return now().Format(layout)
}
