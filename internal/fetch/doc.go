// Package fetch retrieves a single web page over HTTP so its document
// can be highlighted in place. It handles timeouts, response size
// limits, and character set decoding, and returns pages as UTF-8 HTML
// ready for parsing.
package fetch
