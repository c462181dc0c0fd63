// internal/mailtext/mailtext.go
//
// Pure text transforms for campaign bodies exported from the email editor.
// The marker set is fixed and small, so plain regex substitution is enough;
// unmatched markers are left untouched.
package mailtext

import (
	"fmt"
	"regexp"
	"time"
)

var (
	subjectTokenRe = regexp.MustCompile(`\*\|MC:SUBJECT\|\*`)
	previewBlockRe = regexp.MustCompile(`<!--\*\|IF:MC_PREVIEW_TEXT\|\*-->(\s+(.*?)\s*<!--\*\|END:IF\|\*-->)`)
	archiveBlockRe = regexp.MustCompile(`<div data-block-id="1"(\s+(.*?)\s*</div>)`)
	unsubBlockRe   = regexp.MustCompile(`<div data-block-id="9"(\s+(.*?)\s*</div>)`)

	previewTokenRe   = regexp.MustCompile(`\*\|MC_PREVIEW_TEXT\|\*`)
	browserLineRe    = regexp.MustCompile(`View this email in your browser \(\*\|ARCHIVE\|\*\)`)
	copyrightUnsubRe = regexp.MustCompile(`(?s)Copyright.*?\(\*\|UNSUB\|\*\)`)

	firstNameTokenRe = regexp.MustCompile(`\*\|FNAME\|\*`)
)

// PersonalizeHTML injects the subject into the subject token and strips the
// editor's preview-text, archive-link and unsubscribe blocks.
func PersonalizeHTML(html, subject string) string {
	out := subjectTokenRe.ReplaceAllLiteralString(html, subject)
	out = previewBlockRe.ReplaceAllString(out, "")
	out = archiveBlockRe.ReplaceAllString(out, "")
	out = unsubBlockRe.ReplaceAllString(out, "")
	return out
}

// PersonalizePlainText strips the preview-text token, the "view in browser"
// line and the trailing copyright/unsubscribe block.
func PersonalizePlainText(text string) string {
	out := previewTokenRe.ReplaceAllString(text, "")
	out = browserLineRe.ReplaceAllString(out, "")
	out = copyrightUnsubRe.ReplaceAllString(out, "")
	return out
}

// PersonalizeSubject fills the first-name token. A nil first name, or the
// literal "-" some imports carry, becomes an empty string.
func PersonalizeSubject(subject string, firstName *string) string {
	name := ""
	if firstName != nil && *firstName != "-" {
		name = *firstName
	}
	return firstNameTokenRe.ReplaceAllLiteralString(subject, name)
}

// UnsubscribeURL builds the per-subscriber unsubscribe link.
func UnsubscribeURL(baseURL, subscribeID string) string {
	return fmt.Sprintf("%s/unsubscribe/%s", baseURL, subscribeID)
}

// AppendUnsubscribeHTML appends the copyright line with an unsubscribe
// hyperlink. The year is computed at call time.
func AppendUnsubscribeHTML(html, unsubscribeURL string) string {
	footer := fmt.Sprintf(
		`<div style="text-align: center;">Copyright (C) %d All rights reserved. <a href="%s" target="_blank;">Unsubscribe</a></div>`,
		time.Now().Year(), unsubscribeURL,
	)
	return html + footer
}

// AppendUnsubscribeText appends the plain-text copyright and unsubscribe line.
func AppendUnsubscribeText(text, unsubscribeURL string) string {
	footer := fmt.Sprintf(
		"Copyright (C) %d All rights reserved. You can unsubscribe here: %s",
		time.Now().Year(), unsubscribeURL,
	)
	return text + footer
}
