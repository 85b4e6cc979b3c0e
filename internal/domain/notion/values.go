package notion

import (
	"strconv"
	"strings"
)

// JoinRuns flattens a rich-text array into plain text with no separator. The
// same joining rule applies wherever a block or property carries runs.
func JoinRuns(runs []TextRun) string {
	if len(runs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.PlainText)
	}
	return b.String()
}

// ExtractValue converts a property value to a plain display value: string for
// most kinds, float64 for numbers, bool for checkboxes. Total over the kind
// enum; absent sub-fields degrade to an empty string. Called per property per
// page, so it allocates nothing beyond the joined string.
func ExtractValue(v PropertyValue) any {
	switch v.Kind {
	case PropertyTitle, PropertyRichText:
		return JoinRuns(v.Runs)
	case PropertyNumber:
		if v.Number == nil {
			return ""
		}
		return *v.Number
	case PropertySelect:
		return v.Select
	case PropertyMultiSelect:
		return strings.Join(v.MultiSelect, ", ")
	case PropertyDate:
		return v.DateStart
	case PropertyCheckbox:
		return v.Checked
	case PropertyURL, PropertyEmail, PropertyPhone:
		return v.Text
	case PropertyUnknown:
		return ""
	default:
		return ""
	}
}

// DisplayString renders an extracted value as text for table cells and
// emptiness scans.
func DisplayString(v PropertyValue) string {
	switch extracted := ExtractValue(v).(type) {
	case string:
		return extracted
	case float64:
		return strconv.FormatFloat(extracted, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(extracted)
	default:
		return ""
	}
}

// IsEmptyValue reports whether an extracted value would be skipped in a
// document header. Zero numbers and false checkboxes count as empty, matching
// the truthiness rule the header format was defined against.
func IsEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float64:
		return v == 0
	case bool:
		return !v
	default:
		return false
	}
}
