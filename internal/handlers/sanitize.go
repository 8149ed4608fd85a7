package handlers

import (
	"html"
	"strings"

	"mysterybox/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses bounds the strip/unescape loop in SanitizeText.
const maxSanitizePasses = 8

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML tag from s and returns plain text.
//
// StrictPolicy escapes the text it keeps, and unescaping that can reveal new
// markup (escaped or split tags), so the policy runs again until the output
// is stable. Input that never settles is returned in its escaped form.
func SanitizeText(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeSubmission applies SanitizeText to every text field.
func SanitizeSubmission(sub models.GameSubmission) models.GameSubmission {
	sub.UserID = SanitizeText(sub.UserID)
	sub.FullName = SanitizeText(sub.FullName)
	sub.Email = SanitizeText(sub.Email)
	sub.Phone = SanitizeText(sub.Phone)
	sub.PrizeName = SanitizeText(sub.PrizeName)
	sub.PrizeDescription = SanitizeText(sub.PrizeDescription)
	return sub
}
