package normalize

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// PhotoKeys are the field names avatar URLs have been stored under.
var PhotoKeys = []string{"photo_url", "photoUrl", "avatar", "image", "profile_image", "profilePhoto"}

var alternatePhotoContainers = []string{"account_details", BasicColumn, "auth", "profile", "user_metadata", ContactColumn}

// AvatarURLBuilder turns a storage object path into a displayable URL. It
// returns false when storage is not configured.
type AvatarURLBuilder interface {
	AvatarURL(path string) (string, bool)
}

// CleanAvatarPath strips a leading slash and a redundant bucket prefix.
func CleanAvatarPath(path string) string {
	p := strings.TrimLeft(strings.TrimSpace(path), "/")
	for strings.HasPrefix(p, "avatars/") {
		p = strings.TrimPrefix(p, "avatars/")
	}
	return p
}

// HostList is a set of image hosts that block cross-origin loads.
type HostList []string

// ParseHostList splits a comma separated host list.
func ParseHostList(s string) HostList {
	var hosts HostList
	for _, h := range strings.Split(s, ",") {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// Match reports whether host equals a listed host or is a subdomain of one.
func (l HostList) Match(host string) bool {
	host = strings.ToLower(host)
	for _, h := range l {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// PhotoResolver finds one displayable avatar URL for a row. Results are
// cached by row id until invalidated.
type PhotoResolver struct {
	avatars AvatarURLBuilder
	cache   PhotoCache
	rewrite func(string) string
}

func NewPhotoResolver(avatars AvatarURLBuilder, cache PhotoCache) *PhotoResolver {
	return &PhotoResolver{avatars: avatars, cache: cache}
}

// NewSecurePhotoResolver returns a resolver that upgrades http URLs to https
// and routes allow-listed hosts through proxyPath.
func NewSecurePhotoResolver(avatars AvatarURLBuilder, cache PhotoCache, proxyPath string, hosts HostList) *PhotoResolver {
	r := NewPhotoResolver(avatars, cache)
	r.rewrite = func(raw string) string {
		if strings.HasPrefix(raw, "http://") {
			raw = "https://" + strings.TrimPrefix(raw, "http://")
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return raw
		}
		if hosts.Match(u.Hostname()) {
			return proxyPath + "?url=" + url.QueryEscape(raw)
		}
		return raw
	}
	return r
}

// Resolve returns the first photo URL found, trying the storage path, the
// account container, the row, alternate containers and finally any JSON text
// field, in that order.
func (r *PhotoResolver) Resolve(row Record) (string, bool) {
	key := cacheKey(row)
	if r.cache != nil && key != "" {
		if u, ok := r.cache.Get(key); ok {
			return u, u != ""
		}
	}

	u := r.lookup(row)
	if u != "" && r.rewrite != nil {
		u = r.rewrite(u)
	}
	if r.cache != nil && key != "" {
		r.cache.Set(key, u)
	}
	return u, u != ""
}

// Invalidate drops the cached result for one row.
func (r *PhotoResolver) Invalidate(id any) {
	if r.cache == nil || id == nil {
		return
	}
	r.cache.Delete(fmt.Sprint(id))
}

// Reset drops every cached result.
func (r *PhotoResolver) Reset() {
	if r.cache != nil {
		r.cache.Clear()
	}
}

func cacheKey(row Record) string {
	id, ok := row["id"]
	if !ok || !present(id) {
		return ""
	}
	return fmt.Sprint(id)
}

func (r *PhotoResolver) lookup(row Record) string {
	account, hasAccount := Parse(row[AccountColumn], nil)

	if hasAccount && r.avatars != nil {
		if path := firstString(account, "avatar_path", "avatarPath"); path != "" {
			if u, ok := r.avatars.AvatarURL(CleanAvatarPath(path)); ok {
				return u
			}
		}
	}
	if hasAccount {
		if u := firstString(account, PhotoKeys...); u != "" {
			return u
		}
	}
	if u := firstString(row, PhotoKeys...); u != "" {
		return u
	}
	for _, name := range alternatePhotoContainers {
		if obj, ok := Parse(row[name], nil); ok {
			if u := firstString(obj, PhotoKeys...); u != "" {
				return u
			}
		}
	}

	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, ok := row[k].(string)
		if !ok || !strings.HasPrefix(strings.TrimSpace(s), "{") {
			continue
		}
		if obj, ok := Parse(s, nil); ok {
			if u := firstString(obj, PhotoKeys...); u != "" {
				return u
			}
		}
	}
	return ""
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
