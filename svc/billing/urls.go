package billing

import "strings"

// The checkout return URLs are derived from the URL the browser posted to,
// so the flow works unchanged across environments. The stripping rules
// mirror the route layout: /user/upgrade and /user/update-card hang off the
// site root.

// checkoutReturnURLs derives the upgrade-flow return URLs.
// base "https://host/user/upgrade" yields success
// "https://host/login?success=true" and cancel "https://host".
func checkoutReturnURLs(base string) (successURL, cancelURL string) {
	successURL = strings.TrimSuffix(base, "/user/upgrade") + "/login?success=true"

	cancelURL = base
	if i := strings.Index(base, "/user"); i >= 0 {
		cancelURL = base[:i]
	}
	return successURL, cancelURL
}

// cardUpdateReturnURLs derives the card-update-flow return URLs, both of
// which land back on the profile page.
func cardUpdateReturnURLs(base string) (successURL, cancelURL string) {
	root := strings.TrimSuffix(base, "/user/update-card")
	return root + "/user?success=true", root + "/user"
}
