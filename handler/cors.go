package handler

import "strings"

const (
	corsAllowHeaders = "Content-Type,Authorization"
	corsAllowMethods = "POST,OPTIONS"
)

type corsPolicy struct {
	origins  []string
	wildcard bool
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			p.wildcard = true
		}
		p.origins = append(p.origins, o)
	}
	return p
}

// allowOrigin picks the Access-Control-Allow-Origin value for a request
// origin. The second return value is true when the answer depends on the
// request and a Vary header is needed.
func (p corsPolicy) allowOrigin(requestOrigin string) (string, bool) {
	if p.wildcard {
		return "*", false
	}
	requestOrigin = strings.TrimRight(requestOrigin, "/")
	for _, o := range p.origins {
		if requestOrigin != "" && strings.EqualFold(o, requestOrigin) {
			return requestOrigin, true
		}
	}
	if len(p.origins) == 0 {
		return "", true
	}
	return p.origins[0], true
}

func (p corsPolicy) headers(requestOrigin string) map[string]string {
	origin, vary := p.allowOrigin(requestOrigin)
	h := map[string]string{
		"Access-Control-Allow-Origin":  origin,
		"Access-Control-Allow-Headers": corsAllowHeaders,
		"Access-Control-Allow-Methods": corsAllowMethods,
		"Content-Type":                 "application/json",
	}
	if vary {
		h["Vary"] = "Origin"
	}
	return h
}
