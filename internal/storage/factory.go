/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ErrUnsupportedScheme is returned for storage URLs no backend understands
var ErrUnsupportedScheme = errors.New("unsupported storage scheme")

// URL schemes
const (
	SchemeGCS       = "gs"
	SchemeS3        = "s3"
	SchemeAzure     = "azblob"
	SchemeFile      = "file"
	SchemeConfigMap = "k8s"
)

// Location is a parsed storage URL
type Location struct {
	Scheme string
	// Host is the bucket, storage account or namespace
	Host string
	// Path has no leading or trailing slash, except for file URLs which keep it absolute
	Path  string
	Query url.Values
}

// ParseLocation parses a storage URL such as gs://bucket/prefix.
func ParseLocation(raw string) (*Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid storage URL %q: %w", raw, err)
	}

	loc := &Location{Scheme: u.Scheme, Host: u.Host, Query: u.Query()}
	switch u.Scheme {
	case SchemeFile:
		loc.Path = u.Path
		if u.Host != "" && u.Host != "localhost" {
			loc.Path = u.Host + u.Path
		}
		loc.Host = ""
		if loc.Path == "" {
			return nil, fmt.Errorf("storage URL %q has no directory", raw)
		}
	case SchemeGCS, SchemeS3, SchemeAzure, SchemeConfigMap:
		if u.Host == "" {
			return nil, fmt.Errorf("storage URL %q has no %s", raw, hostName(u.Scheme))
		}
		loc.Path = strings.Trim(u.Path, "/")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return loc, nil
}

func hostName(scheme string) string {
	switch scheme {
	case SchemeAzure:
		return "storage account"
	case SchemeConfigMap:
		return "namespace"
	default:
		return "bucket"
	}
}

// Split returns the parent location and the last path element, so that an
// object URL can be opened as a backend plus an object path.
func (l *Location) Split() (*Location, string) {
	parent := *l
	i := strings.LastIndex(l.Path, "/")
	if i < 0 {
		parent.Path = ""
		return &parent, l.Path
	}
	parent.Path = l.Path[:i]
	if l.Scheme == SchemeFile && parent.Path == "" {
		parent.Path = "/"
	}
	return &parent, l.Path[i+1:]
}

// String formats the location back into a URL
func (l *Location) String() string {
	u := url.URL{Scheme: l.Scheme, Host: l.Host, RawQuery: l.Query.Encode()}
	switch {
	case l.Scheme == SchemeFile:
		u.Path = l.Path
	case l.Path != "":
		u.Path = "/" + l.Path
	}
	return u.String()
}

// Options carries the collaborators a backend may need
type Options struct {
	// Getenv reads credentials, defaults to os.Getenv
	Getenv func(string) string

	// KubeClient is used for k8s:// locations. When nil a client is built from
	// the ambient kubeconfig.
	KubeClient client.Client
}

func (o Options) getenv(key string) string {
	if o.Getenv == nil {
		return os.Getenv(key)
	}
	return o.Getenv(key)
}

// NewBackendFromURL opens the backend for a storage URL:
//
//	gs://bucket/prefix
//	s3://bucket/prefix?region=eu-west-1&endpoint=http://minio:9000&pathStyle=true
//	azblob://account/container/prefix
//	file:///var/lib/sqlplan
//	k8s://namespace/configmap-name
func NewBackendFromURL(ctx context.Context, raw string, opts Options) (Backend, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	return NewBackend(ctx, loc, opts)
}

// NewBackend opens the backend for a parsed location
func NewBackend(ctx context.Context, loc *Location, opts Options) (Backend, error) {
	switch loc.Scheme {
	case SchemeGCS:
		var clientOpts []option.ClientOption
		if ep := loc.Query.Get("endpoint"); ep != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(ep), option.WithoutAuthentication())
		}
		return NewGCSBackend(ctx, loc.Host, loc.Path, clientOpts...)

	case SchemeS3:
		pathStyle, _ := strconv.ParseBool(loc.Query.Get("pathStyle"))
		return NewS3Backend(ctx, S3Options{
			Bucket:    loc.Host,
			Prefix:    loc.Path,
			Region:    loc.Query.Get("region"),
			Endpoint:  loc.Query.Get("endpoint"),
			PathStyle: pathStyle,
			AccessKey: opts.getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: opts.getenv("AWS_SECRET_ACCESS_KEY"),
		})

	case SchemeAzure:
		containerName, prefix, _ := strings.Cut(loc.Path, "/")
		return NewAzureBackend(AzureOptions{
			Account:    loc.Host,
			Container:  containerName,
			Prefix:     prefix,
			AccountKey: opts.getenv("AZURE_STORAGE_ACCOUNT_KEY"),
			Endpoint:   loc.Query.Get("endpoint"),
		})

	case SchemeFile:
		return NewLocalBackend(loc.Path)

	case SchemeConfigMap:
		if loc.Path == "" || strings.Contains(loc.Path, "/") {
			return nil, fmt.Errorf("k8s storage URL must be k8s://<namespace>/<configmap>, got path %q", loc.Path)
		}
		c := opts.KubeClient
		if c == nil {
			var err error
			if c, err = newKubeClient(); err != nil {
				return nil, err
			}
		}
		return NewConfigMapBackend(c, loc.Host, loc.Path), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, loc.Scheme)
	}
}
