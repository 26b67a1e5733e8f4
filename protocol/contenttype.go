package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ContentType renders a media-type name and version as the header value
// beanwire puts on the wire, e.g. ContentType(MediaEJBInvocation, 1) ->
// "application/x-wf-ejb-jbmar-invocation;version=1".
func ContentType(media string, version int) string {
	return fmt.Sprintf("application/%s;version=%d", media, version)
}

// ParsedContentType is a decomposed Content-Type header value.
type ParsedContentType struct {
	Media   string
	Version int
}

// ParseContentType decodes a header value produced by ContentType. It
// tolerates extra whitespace and an absent version parameter (version
// then defaults to 1, matching legacy peers that omit it).
func ParseContentType(header string) (ParsedContentType, error) {
	parts := strings.Split(header, ";")
	media := strings.TrimSpace(parts[0])
	media = strings.TrimPrefix(media, "application/")

	version := 1
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if v, ok := strings.CutPrefix(p, "version="); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return ParsedContentType{}, fmt.Errorf("protocol: invalid content-type version %q: %w", v, err)
			}
			version = n
		}
	}

	if media == "" {
		return ParsedContentType{}, fmt.Errorf("protocol: empty content-type media in %q", header)
	}

	return ParsedContentType{Media: media, Version: version}, nil
}

// Matches reports whether a parsed content-type matches an expected media
// name and exact version. Clients that receive a payload whose
// content-type does not match what they requested must fail the
// operation (spec.md §4.1).
func (p ParsedContentType) Matches(media string, version int) bool {
	return p.Media == media && p.Version == version
}
