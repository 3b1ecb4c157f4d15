package scraper

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CompanyFromURL guesses the hiring company from well-known job board URL
// shapes. It returns "" when nothing fits.
func CompanyFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	firstPathSegment := func() string {
		p := strings.Trim(u.Path, "/")
		if p == "" {
			return ""
		}
		return strings.Split(p, "/")[0]
	}

	switch {
	case strings.Contains(host, "greenhouse.io"), strings.Contains(host, "lever.co"):
		return prettyName(firstPathSegment())
	case strings.Contains(host, "jobs"):
		sub := strings.Split(host, ".")[0]
		if sub != "www" && sub != "jobs" {
			return prettyName(sub)
		}
	}
	return ""
}

// CompanyFromTitle takes the part of a page title before the first hyphen.
func CompanyFromTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(title, "-", 2)[0])
}

// SiteLabel names the site a posting came from: a known job board or the
// bare host.
func SiteLabel(raw string) string {
	host := hostFromURL(raw)
	switch {
	case host == "":
		return "unknown"
	case strings.Contains(host, "greenhouse.io"):
		return "greenhouse"
	case strings.Contains(host, "lever.co"):
		return "lever"
	case strings.Contains(host, "linkedin.com"):
		return "linkedin"
	case strings.Contains(host, "indeed."):
		return "indeed"
	case strings.Contains(host, "workdayjobs.com"), strings.Contains(host, "myworkday"):
		return "workday"
	}
	return strings.TrimPrefix(host, "www.")
}

func prettyName(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "-", " "))
	if s == "" {
		return ""
	}
	// Casers keep state between calls and are not shared.
	return cases.Title(language.English).String(s)
}
