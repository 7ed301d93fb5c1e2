package flashd

import "fmt"

// serverToken is the Server: header value and the signature line in error
// pages — named for this project, not the original author (SPEC_FULL.md
// Part D).
const serverToken = "flashd"

// errorPage renders the minimal HTML body original_source/WebServer uses
// for failed requests: the status code, a short message, and a signature
// line.
func errorPage(code int, shortMsg string) string {
	return fmt.Sprintf(
		"<html><title>%d %s</title>"+
			"<body bgcolor=\"ffffff\"><h2>%d %s</h2>"+
			"<hr><em>%s</em></body></html>",
		code, shortMsg, code, shortMsg, serverToken)
}
