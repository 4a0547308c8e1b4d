// Package fetcher retrieves pages for the crawl engine.
//
// The crawl engine only depends on the Fetcher interface. Three
// implementations are provided:
//   - HTTPFetcher: net/http client with HTTP(S) or SOCKS5 proxy support
//   - CollyFetcher: gocolly collector, one per request
//   - BrowserFetcher: headless Chrome via chromedp, for pages that need
//     JavaScript to render their content
//
// Every implementation reports network failures as *TransportError and
// returns non-200 responses as a normal PageResult so the caller can decide
// how to treat them.
package fetcher
