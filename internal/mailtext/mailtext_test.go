package mailtext_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dirihq/newsletter-service/internal/mailtext"
)

func strPtr(s string) *string { return &s }

func TestPersonalizeSubject(t *testing.T) {
	assert.Equal(t, "Hello Ann", mailtext.PersonalizeSubject("Hello *|FNAME|*", strPtr("Ann")))
	assert.Equal(t, "Hello ", mailtext.PersonalizeSubject("Hello *|FNAME|*", nil))
	assert.Equal(t, "Hello ", mailtext.PersonalizeSubject("Hello *|FNAME|*", strPtr("-")))

	// No token, nothing changes
	assert.Equal(t, "Plain subject", mailtext.PersonalizeSubject("Plain subject", strPtr("Ann")))
}

func TestPersonalizeHTML(t *testing.T) {
	html := `<html><head><title>*|MC:SUBJECT|*</title></head><body>` +
		`<!--*|IF:MC_PREVIEW_TEXT|*-->` + "\n  " + `<span>preview here</span> <!--*|END:IF|*-->` +
		`<p>Main content</p>` +
		`<div data-block-id="1" class="archive">View online</div>` +
		`<div data-block-id="9" class="unsub">Unsubscribe block</div>` +
		`</body></html>`

	got := mailtext.PersonalizeHTML(html, "October News")

	assert.Contains(t, got, "<title>October News</title>")
	assert.Contains(t, got, "<p>Main content</p>")
	assert.NotContains(t, got, "preview here")
	assert.NotContains(t, got, "MC_PREVIEW_TEXT")
	assert.NotContains(t, got, `data-block-id="1"`)
	assert.NotContains(t, got, `data-block-id="9"`)
}

func TestPersonalizeHTMLIdempotentOnStrippedRegions(t *testing.T) {
	html := `<body><!--*|IF:MC_PREVIEW_TEXT|*-->` + "\n " + `x <!--*|END:IF|*--><p>hi *|MC:SUBJECT|*</p><div data-block-id="9" a</div></body>`

	once := mailtext.PersonalizeHTML(html, "S")
	twice := mailtext.PersonalizeHTML(once, "S")
	assert.Equal(t, once, twice)
}

func TestPersonalizeHTMLUnmatchedMarkersLeftAlone(t *testing.T) {
	// Start marker without its end marker must not be touched.
	html := `<body><!--*|IF:MC_PREVIEW_TEXT|*--> dangling<p>rest</p></body>`
	assert.Equal(t, html, mailtext.PersonalizeHTML(html, "ignored"))
}

func TestPersonalizePlainText(t *testing.T) {
	text := "*|MC_PREVIEW_TEXT|*\n" +
		"View this email in your browser (*|ARCHIVE|*)\n" +
		"Main body line.\n" +
		"Copyright (C) company\nall rights\nunsubscribe: (*|UNSUB|*)\ntrailing"

	got := mailtext.PersonalizePlainText(text)

	assert.NotContains(t, got, "MC_PREVIEW_TEXT")
	assert.NotContains(t, got, "View this email in your browser")
	assert.NotContains(t, got, "Copyright (C) company")
	assert.NotContains(t, got, "*|UNSUB|*")
	assert.Contains(t, got, "Main body line.")
	assert.Contains(t, got, "trailing")
}

func TestUnsubscribeFooters(t *testing.T) {
	url := mailtext.UnsubscribeURL("https://news.example.com", "subiber123")
	assert.Equal(t, "https://news.example.com/unsubscribe/subiber123", url)

	year := time.Now().Year()

	html := mailtext.AppendUnsubscribeHTML("<p>body</p>", url)
	assert.Contains(t, html, "<p>body</p>")
	assert.Contains(t, html, fmt.Sprintf("Copyright (C) %d", year))
	assert.Contains(t, html, `<a href="`+url+`"`)

	text := mailtext.AppendUnsubscribeText("body", url)
	assert.Contains(t, text, fmt.Sprintf("Copyright (C) %d", year))
	assert.Contains(t, text, "You can unsubscribe here: "+url)
}
