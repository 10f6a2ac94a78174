/*
Copyright © 2018 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package rastersrc

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/ctessum/requestcache"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/footprint/internal/hash"
)

// Default settings for fetching remote rasters.
const (
	DefaultFetchCacheSize = 16
	DefaultMaxRetries     = 4
)

// A Fetcher copies remote rasters to the local filesystem. Concurrent
// requests for the same href share a single download, and the outcomes
// of recent downloads, including failures, are remembered so they aren't
// fetched again.
type Fetcher struct {
	// Dir is the directory downloads are written to. If it is empty, a
	// new temporary directory is created for each download.
	Dir string

	// MaxRetries is the number of times a failed HTTP request is retried.
	MaxRetries uint64

	// CacheSize is the number of downloads that are remembered.
	CacheSize int

	// Client is used for HTTP requests. If it is nil,
	// http.DefaultClient is used.
	Client *http.Client

	Log logrus.FieldLogger

	cache     *requestcache.Cache
	cacheInit sync.Once
}

// NewFetcher returns a Fetcher with default settings that writes
// downloads to dir.
func NewFetcher(dir string) *Fetcher {
	return &Fetcher{
		Dir:        dir,
		MaxRetries: DefaultMaxRetries,
		CacheSize:  DefaultFetchCacheSize,
	}
}

var (
	defaultFetcher     *Fetcher
	defaultFetcherInit sync.Once
)

// Open reads the raster at href using a shared Fetcher. See Fetcher.Open.
func Open(ctx context.Context, href string) (*Array, error) {
	defaultFetcherInit.Do(func() { defaultFetcher = NewFetcher("") })
	return defaultFetcher.Open(ctx, href)
}

// Open reads the raster at href, which may be a local path, an http(s)
// URL, or a blob URL (see IsBlob). The format is chosen by file
// extension: ".asc" and ".txt" for ESRI ASCII grids, and ".nc", ".nc4",
// and ".cdf" for NetCDF files.
func (f *Fetcher) Open(ctx context.Context, href string) (*Array, error) {
	path, err := f.Fetch(ctx, href)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asc", ".txt":
		return ReadASCIIGridFile(path)
	case ".nc", ".nc4", ".cdf":
		return ReadNetCDFFile(path)
	default:
		return nil, fmt.Errorf("rastersrc: unsupported raster format %q", filepath.Ext(path))
	}
}

// Fetch returns the local path of the file at href, downloading it and
// any associated files (such as a ".prj" projection file) first if it
// is remote.
func (f *Fetcher) Fetch(ctx context.Context, href string) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(href); !os.IsNotExist(err) {
		return href, nil
	}
	if !isHTTP(href) && !IsBlob(href) {
		return "", fmt.Errorf("rastersrc: %s does not exist", href)
	}

	f.cacheInit.Do(func() {
		size := f.CacheSize
		if size <= 0 {
			size = DefaultFetchCacheSize
		}
		// Errors are returned in the result so that duplicate requests
		// waiting on a failed download are released.
		f.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			path, err := f.download(ctx, request.(string))
			return fetchResult{path: path, err: err}, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(size))
	})
	result, err := f.cache.NewRequest(ctx, href, href).Result()
	if err != nil {
		return "", err
	}
	r := result.(fetchResult)
	return r.path, r.err
}

type fetchResult struct {
	path string
	err  error
}

func (f *Fetcher) log() logrus.FieldLogger {
	if f.Log == nil {
		l := logrus.New()
		l.Out = ioutil.Discard
		return l
	}
	return f.Log
}

// download copies the file at href and its associated files to the local
// filesystem and returns the path of the main file.
func (f *Fetcher) download(ctx context.Context, href string) (string, error) {
	dir := f.Dir
	if dir == "" {
		var err error
		dir, err = ioutil.TempDir("", "footprint")
		if err != nil {
			return "", fmt.Errorf("rastersrc: creating temporary download directory: %v", err)
		}
	} else {
		// Each href gets its own directory so that files with the same
		// name from different locations don't overwrite each other.
		dir = filepath.Join(dir, hash.Key(href))
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return "", fmt.Errorf("rastersrc: creating download directory: %v", err)
		}
	}

	var get func(ctx context.Context, href string, w io.Writer) error
	if isHTTP(href) {
		get = f.getHTTP
	} else {
		get = getBlob
	}

	var main string
	for i, name := range sidecars(href) {
		local := filepath.Join(dir, filepath.Base(name))
		if i == 0 {
			main = local
		}
		f.log().WithFields(logrus.Fields{"href": name, "path": local}).Debug("rastersrc downloading file")
		if err := fetchTo(ctx, name, local, get); err != nil {
			if i == 0 {
				return "", err
			}
			// Associated files are optional.
			f.log().WithError(err).Debug("rastersrc skipping associated file")
		}
	}
	return main, nil
}

func fetchTo(ctx context.Context, href, path string, get func(context.Context, string, io.Writer) error) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rastersrc: creating file for download: %v", err)
	}
	if err = get(ctx, href, w); err != nil {
		w.Close()
		os.Remove(path)
		return err
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("rastersrc: writing %s: %v", path, err)
	}
	return nil
}

// getHTTP downloads href, retrying with exponential backoff when the
// request fails or the server returns a 5xx status.
func (f *Fetcher) getHTTP(ctx context.Context, href string, w io.Writer) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	var permanent error
	err := backoff.RetryNotify(
		func() error {
			req, err := http.NewRequest(http.MethodGet, href, nil)
			if err != nil {
				permanent = fmt.Errorf("rastersrc: %v", err)
				return nil
			}
			resp, err := client.Do(req.WithContext(ctx))
			if err != nil {
				if ctx.Err() != nil {
					permanent = fmt.Errorf("rastersrc: downloading %s: %v", href, ctx.Err())
					return nil
				}
				return fmt.Errorf("rastersrc: downloading %s: %v", href, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 {
				return fmt.Errorf("rastersrc: downloading %s: %s", href, resp.Status)
			} else if resp.StatusCode != http.StatusOK {
				permanent = fmt.Errorf("rastersrc: downloading %s: %s", href, resp.Status)
				return nil
			}
			if _, err := io.Copy(w, resp.Body); err != nil {
				permanent = fmt.Errorf("rastersrc: downloading %s: %v", href, err)
			}
			return nil
		},
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.MaxRetries),
		func(err error, d time.Duration) {
			f.log().WithError(err).WithField("retry_in", d).Info("rastersrc retrying download")
		},
	)
	if err != nil {
		return err
	}
	return permanent
}

// IsBlob returns whether the given href represents a blob
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(href string) bool {
	return strings.HasPrefix(href, "gs://") || strings.HasPrefix(href, "s3://") || strings.HasPrefix(href, "file://")
}

func isHTTP(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

// getBlob copies the blob at href to w.
func getBlob(ctx context.Context, href string, w io.Writer) error {
	bucket, key, err := OpenBucket(ctx, href)
	if err != nil {
		return err
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return fmt.Errorf("rastersrc: reading %s: %v", href, err)
	}
	defer r.Close()
	if _, err = io.Copy(w, r); err != nil {
		return fmt.Errorf("rastersrc: reading %s: %v", href, err)
	}
	return nil
}

// OpenBucket returns the blob storage bucket holding href and the key of
// href within it. href must be in the format 'provider://bucket/key'
// where provider is the name of the storage provider.
// The currently accepted storage providers are "file" for the local
// filesystem, where the bucket is the directory containing the file,
// "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, href string) (*blob.Bucket, string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, "", fmt.Errorf("rastersrc.OpenBucket: %v", err)
	}
	var b *blob.Bucket
	key := strings.TrimPrefix(u.Path, "/")
	switch u.Scheme {
	case "file":
		p := filepath.FromSlash(u.Host + u.Path)
		key = filepath.Base(p)
		b, err = fileblob.NewBucket(filepath.Dir(p))
	case "gs":
		b, err = gsBucket(ctx, u.Hostname())
	case "s3":
		b, err = s3Bucket(ctx, u.Hostname())
	default:
		return nil, "", fmt.Errorf("rastersrc.OpenBucket: invalid provider %s", u.Scheme)
	}
	if err != nil {
		return nil, "", fmt.Errorf("rastersrc.OpenBucket: %v", err)
	}
	if key == "" {
		return nil, "", fmt.Errorf("rastersrc.OpenBucket: %s has no object key", href)
	}
	return b, key, nil
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// sidecars returns the given file plus the projection file that
// accompanies it if the given file is an ESRI ASCII grid, and returns
// the given file otherwise.
func sidecars(filename string) []string {
	o := []string{filename}
	ext := filepath.Ext(filename)
	switch strings.ToLower(ext) {
	case ".asc", ".txt":
		o = append(o, filename[0:len(filename)-len(ext)]+".prj")
	}
	return o
}
