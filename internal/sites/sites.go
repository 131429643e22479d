// Package sites holds domain colour overrides: the built-in table of
// well-known sites and user-supplied custom entries.
package sites

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/sitetint/internal/colour"
)

// Entry maps a domain suffix to a colour.
type Entry struct {
	Domain string     `json:"domain" yaml:"domain"`
	Colour colour.Hex `json:"color" yaml:"color"`
}

// List is an ordered set of entries; the first match wins.
type List []Entry

// Known is the built-in table of well-known sites.
var Known = List{
	{Domain: "youtube.com", Colour: "#ff0000"},
	{Domain: "google.com", Colour: "#4285f4"},
	{Domain: "facebook.com", Colour: "#1877f2"},
	{Domain: "fb.com", Colour: "#1877f2"},
	{Domain: "twitter.com", Colour: "#1da1f2"},
	{Domain: "x.com", Colour: "#000000"},
	{Domain: "reddit.com", Colour: "#ff4500"},
	{Domain: "pinterest.com", Colour: "#e60023"},
	{Domain: "amazon.com", Colour: "#ff9900"},
	{Domain: "netflix.com", Colour: "#e50914"},
	{Domain: "github.com", Colour: "#171515"},
	{Domain: "instagram.com", Colour: "#e1306c"},
	{Domain: "linkedin.com", Colour: "#0a66c2"},
	{Domain: "tumblr.com", Colour: "#34526f"},
	{Domain: "twitch.tv", Colour: "#9146ff"},
	{Domain: "wikipedia.org", Colour: "#000000"},
	{Domain: "yahoo.com", Colour: "#6001d2"},
	{Domain: "microsoft.com", Colour: "#00a4ef"},
	{Domain: "apple.com", Colour: "#000000"},
	{Domain: "bing.com", Colour: "#008373"},
	{Domain: "slack.com", Colour: "#4a154b"},
	{Domain: "claude.ai", Colour: "#ed9c48"},
	{Domain: "anthropic.com", Colour: "#ed9c48"},
	{Domain: "ebay.com", Colour: "#e53238"},
	{Domain: "paypal.com", Colour: "#00457c"},
	{Domain: "whatsapp.com", Colour: "#25d366"},
	{Domain: "snapchat.com", Colour: "#fffc00"},
	{Domain: "tiktok.com", Colour: "#000000"},
	{Domain: "spotify.com", Colour: "#1db954"},
	{Domain: "adobe.com", Colour: "#ff0000"},
	{Domain: "dropbox.com", Colour: "#0061ff"},
	{Domain: "salesforce.com", Colour: "#00a1e0"},
	{Domain: "airbnb.com", Colour: "#ff5a5f"},
	{Domain: "uber.com", Colour: "#000000"},
	{Domain: "stackoverflow.com", Colour: "#cf5b00"},
}

// Match returns the colour of the first entry whose domain is the host or
// one of its parent domains. Matching is on label boundaries, so
// "x.com" matches "x.com" and "www.x.com" but not "dropbox.com".
func (l List) Match(host string) (Entry, bool) {
	host = normalizeHost(host)
	if host == "" {
		return Entry{}, false
	}
	for _, e := range l {
		d := normalizeHost(e.Domain)
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return e, true
		}
	}
	return Entry{}, false
}

// MatchContains is Match followed by a second pass that accepts any entry
// whose domain occurs anywhere in the host, so partial names such as
// "github" or "mail.google" still match. Custom entries use it.
func (l List) MatchContains(host string) (Entry, bool) {
	if e, ok := l.Match(host); ok {
		return e, true
	}
	host = normalizeHost(host)
	if host == "" {
		return Entry{}, false
	}
	for _, e := range l {
		if d := normalizeHost(e.Domain); d != "" && strings.Contains(host, d) {
			return e, true
		}
	}
	return Entry{}, false
}

// Validate checks every entry has a domain and a parseable colour.
func (l List) Validate() error {
	for i, e := range l {
		if normalizeHost(e.Domain) == "" {
			return fmt.Errorf("entry %d: domain is required", i)
		}
		if _, ok := colour.Normalize(string(e.Colour), nil); !ok {
			return fmt.Errorf("entry %d (%s): invalid colour %q", i, e.Domain, e.Colour)
		}
	}
	return nil
}

func normalizeHost(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}
