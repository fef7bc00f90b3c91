// Package credentials loads the API tokens a harvest pass hands out, one per worker
package credentials

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/services/harvest/domain"

	"github.com/joho/godotenv"
)

// Loader reads credentials from a dotenv secret store plus an optional inline list.
// Dotenv values come first in the order the store lists them, so worker i always gets
// the i-th token of the file
type Loader struct {
	// Path is the dotenv file; a missing file is fine when Inline is set
	Path string
	// Prefix keeps only keys starting with it; empty keeps every key
	Prefix string
	// Inline tokens are appended after the dotenv ones
	Inline []string
}

var _ domain.CredentialSource = Loader{}

// Load returns the deduplicated credential list; it is an error for it to be empty
func (l Loader) Load() ([]domain.Credential, error) {
	var out []domain.Credential
	seen := map[string]bool{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, domain.Credential(v))
	}

	if l.Path != "" {
		raw, err := os.ReadFile(l.Path)
		switch {
		case err == nil:
			env, err := godotenv.UnmarshalBytes(raw)
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse secret store %s", l.Path)
			}
			for _, k := range fileOrder(raw, env) {
				if l.Prefix == "" || strings.HasPrefix(k, l.Prefix) {
					add(env[k])
				}
			}
		case errors.Is(err, fs.ErrNotExist) && len(l.Inline) > 0:
		default:
			return nil, perr.Wrapf(err, perr.ErrorCodeIO, "read secret store %s", l.Path)
		}
	}
	for _, v := range l.Inline {
		add(v)
	}

	if len(out) == 0 {
		return nil, perr.InvalidArgf("no credentials found (path=%q prefix=%q)", l.Path, l.Prefix)
	}
	return out, nil
}

// fileOrder lists the keys of env in the order they first appear in raw.
// Keys the line scan cannot place are appended in sorted order.
func fileOrder(raw []byte, env map[string]string) []string {
	keys := make([]string, 0, len(env))
	seen := make(map[string]bool, len(env))
	for line := range strings.Lines(string(raw)) {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "export ")
		i := strings.IndexAny(line, "=:")
		if i <= 0 {
			continue
		}
		k := strings.TrimSpace(line[:i])
		if _, ok := env[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range env {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}
