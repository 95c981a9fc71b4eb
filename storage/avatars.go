package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// TemplateAvatarURLs builds authenticated object URLs for the hosted storage
// service from a fixed endpoint template. A zero value (missing endpoint or
// key) reports every path as unresolvable.
type TemplateAvatarURLs struct {
	Endpoint string
	Bucket   string
	Token    string
}

func NewTemplateAvatarURLs(endpoint, bucket, token string) *TemplateAvatarURLs {
	if bucket == "" {
		bucket = "avatars"
	}
	return &TemplateAvatarURLs{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Bucket:   bucket,
		Token:    token,
	}
}

// AvatarURL returns the authenticated URL for an object path inside the
// avatar bucket.
func (t *TemplateAvatarURLs) AvatarURL(path string) (string, bool) {
	if t == nil || t.Endpoint == "" || t.Token == "" || path == "" {
		return "", false
	}
	return fmt.Sprintf("%s/storage/v1/object/authenticated/%s/%s?token=%s",
		t.Endpoint, t.Bucket, escapePath(path), url.QueryEscape(t.Token)), true
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
