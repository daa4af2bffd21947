package proxy

import (
	"net/url"
	"regexp"
	"strings"
)

var targetURIRegex = regexp.MustCompile(`^mongodb(\+srv)?://.+`)

// Validate checks the request fields that must hold before any connection
// is opened. It reports every missing required field in one error.
func (r *Request) Validate() error {
	var missing []string
	if r.TargetURI == "" {
		missing = append(missing, "targetUri")
	}
	if r.Operation == "" {
		missing = append(missing, "operation")
	}
	if r.CollectionName == "" {
		missing = append(missing, "collectionName")
	}
	if len(missing) > 0 {
		return badRequestf("missing required fields: %s", strings.Join(missing, ", "))
	}

	if !targetURIRegex.MatchString(r.TargetURI) {
		return badRequestf("targetUri must be a MongoDB connection string (mongodb:// or mongodb+srv://)")
	}

	return nil
}

// ResolveDatabase determines which database the operation targets.
// Order: explicit databaseName, first path segment of targetUri, then the
// authSource query parameter. With none of those the caller must supply
// databaseName explicitly.
func (r *Request) ResolveDatabase() (string, error) {
	if r.DatabaseName != "" {
		return r.DatabaseName, nil
	}

	u, err := url.Parse(r.TargetURI)
	if err != nil {
		return "", badRequestf("targetUri is not a valid URI: %v", err)
	}

	if seg := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]; seg != "" {
		return seg, nil
	}

	if authSource := u.Query().Get("authSource"); authSource != "" {
		return authSource, nil
	}

	return "", badRequestf("could not determine database from targetUri; supply databaseName explicitly")
}
