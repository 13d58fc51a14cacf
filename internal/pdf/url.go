package pdf

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

// arxivPathRe matches arXiv abstract and PDF paths, capturing the identifier
// (new style 2301.12345v2 or old style hep-th/9901001).
var arxivPathRe = regexp.MustCompile(`^/(?:abs|pdf)/([a-z\-]+(?:\.[A-Z]{2})?/\d{7}|\d{4}\.\d{4,5})(v\d+)?(?:\.pdf)?/?$`)

// ValidateURL checks that raw is an http(s) URL naming a PDF and returns the
// URL to fetch. Paths must end in ".pdf" (case-insensitive, query string
// ignored). arXiv abstract and PDF links without the extension are accepted
// and rewritten to the canonical https://arxiv.org/pdf/<id> form.
// Violations return a *domain.ValidationError.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.NewValidationError("pdf_url", "is required")
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", domain.NewValidationError("pdf_url", "must start with http:// or https://")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", domain.NewValidationError("pdf_url", "is not a valid URL")
	}

	if isArXivHost(u.Hostname()) {
		if m := arxivPathRe.FindStringSubmatch(u.Path); m != nil {
			return "https://arxiv.org/pdf/" + m[1] + m[2], nil
		}
	}

	if !strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return "", domain.NewValidationError("pdf_url", "must point to a .pdf document")
	}
	return u.String(), nil
}

func isArXivHost(host string) bool {
	host = strings.ToLower(host)
	return host == "arxiv.org" || strings.HasSuffix(host, ".arxiv.org")
}
