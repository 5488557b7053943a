package fulfill

import (
	"fmt"
	"unicode/utf16"
)

// smsLimit is the single-segment GSM/UCS-2 budget, counted in UTF-16 code
// units the way carriers do.
const smsLimit = 160

// smsBody renders the notification text for a submission.
func smsBody(req Request) string {
	body := fmt.Sprintf("%s New %s submission. Name: %s %s, Email: %s",
		priorityEmoji(req.Priority),
		req.FormID,
		stringField(req.FormData, "first_name"),
		stringField(req.FormData, "last_name"),
		stringField(req.FormData, "email"))
	return truncateUTF16(body, smsLimit)
}

func priorityEmoji(priority string) string {
	switch priority {
	case "high":
		return "\U0001F6A8" // 🚨
	case "low":
		return "\U0001F4CB" // 📋
	default:
		return "\U0001F4DD" // 📝
	}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// truncateUTF16 cuts a string to at most limit UTF-16 code units, never
// splitting a surrogate pair.
func truncateUTF16(s string, limit int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= limit {
		return s
	}
	units = units[:limit]
	// Drop a dangling high surrogate at the cut point.
	if last := units[len(units)-1]; last >= 0xD800 && last <= 0xDBFF {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units))
}
