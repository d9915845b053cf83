package mhr

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer is the headless-browser capability used when rank widgets are
// injected client-side and missing from the static markup. Tests substitute a
// stub; production uses ChromeRenderer.
type Renderer interface {
	RenderText(ctx context.Context, url string) (string, error)
}

const (
	// rankPollInterval and rankPollTimeout bound the wait for client-rendered
	// rank widgets to populate.
	rankPollInterval = 250 * time.Millisecond
	rankPollTimeout  = 8 * time.Second

	// rankTokenJS is truthy once something ordinal-looking appears in the body.
	rankTokenJS = `/\d+(st|nd|rd|th)\s/.test(document.body.innerText)`
)

// ChromeRenderer renders pages in headless Chrome via chromedp.
type ChromeRenderer struct {
	timeout time.Duration
}

// NewChromeRenderer creates a renderer with the given overall timeout.
func NewChromeRenderer(timeout time.Duration) *ChromeRenderer {
	return &ChromeRenderer{timeout: timeout}
}

// RenderText navigates to url, waits (bounded) for rank content to appear,
// and returns the normalized visible body text.
func (r *ChromeRenderer) RenderText(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigating: %w", err)
	}

	// Best effort: a poll timeout just means the widget never showed up, and
	// whatever the body holds at that point is still worth extracting.
	var ready bool
	_ = chromedp.Run(tabCtx, chromedp.Poll(rankTokenJS, &ready,
		chromedp.WithPollingInterval(rankPollInterval),
		chromedp.WithPollingTimeout(rankPollTimeout)))

	var text string
	if err := chromedp.Run(tabCtx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("extracting body text: %w", err)
	}

	return normalizeWhitespace(text), nil
}
