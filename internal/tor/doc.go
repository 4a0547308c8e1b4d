// Package tor provides the optional Tor transport for DataHawk crawls.
//
// It can launch an embedded Tor daemon (via tornago) whose SOCKS5 port is
// then used as the crawl proxy, verify that a SOCKS5 proxy really speaks the
// protocol before a crawl starts, and recognise onion service hosts so that
// seeds pointing at them are not fetched over the clear net.
package tor
