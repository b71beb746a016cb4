// Package prompt flattens ingested items into the text block sent to the
// model, wraps it in the instruction template, and recovers a best-effort
// structured view from that template on the proxy side.
package prompt
