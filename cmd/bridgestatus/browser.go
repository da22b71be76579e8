package main

import (
	"fmt"
	"io"
	"net/url"

	"github.com/pkg/browser"
)

// openURL is replaced in tests.
var openURL = browser.OpenURL

func init() {
	// The launcher's output would tear the alternate screen.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// openBrowser opens an indicator link with the platform's default handler.
// Only http and https links are opened.
func openBrowser(link string) error {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not a web link", link)
	}
	if err := openURL(u.String()); err != nil {
		return fmt.Errorf("open %s: %w", link, err)
	}
	return nil
}
