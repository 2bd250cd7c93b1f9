package mdnice

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/ysmood/gson"
	"golang.org/x/time/rate"

	"github.com/alnah/go-mdnice/internal/fileutil"
)

// Limits applied when reading images.
const (
	maxImageBytes      = 20 << 20
	imageFetchTimeout  = 10 * time.Second
	imageUploadTimeout = 30 * time.Second
)

var (
	errImageTooLarge     = errors.New("image exceeds size limit")
	errUnsupportedScheme = errors.New("unsupported image scheme")
	errBadDataURL        = errors.New("malformed data URL")
)

// imageExtByType maps image MIME types to file extensions.
var imageExtByType = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/svg+xml": ".svg",
}

// imageBlob is the raw content of an image reference.
type imageBlob struct {
	data []byte
	name string
}

// readImage loads the bytes behind ref: a local file, a remote URL fetched
// with client, or decoded inline data.
func readImage(ctx context.Context, client *http.Client, ref ImageRef) (imageBlob, error) {
	switch ref.Kind {
	case ImageData:
		return decodeDataURL(ref.Target)
	case ImageRemote:
		return fetchImage(ctx, client, ref.Target)
	default:
		info, err := os.Stat(ref.Target)
		if err != nil {
			return imageBlob{}, err
		}
		if info.Size() > maxImageBytes {
			return imageBlob{}, fmt.Errorf("%w: %d bytes", errImageTooLarge, info.Size())
		}
		data, err := os.ReadFile(ref.Target) // #nosec G304 -- path comes from the document being converted
		if err != nil {
			return imageBlob{}, err
		}
		return imageBlob{data: data, name: filepath.Base(ref.Target)}, nil
	}
}

func fetchImage(ctx context.Context, client *http.Client, rawURL string) (imageBlob, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return imageBlob{}, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return imageBlob{}, fmt.Errorf("%w: %s", errUnsupportedScheme, u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, imageFetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return imageBlob{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return imageBlob{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return imageBlob{}, fmt.Errorf("fetching %s: %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return imageBlob{}, err
	}
	if len(data) > maxImageBytes {
		return imageBlob{}, errImageTooLarge
	}

	name := path.Base(u.Path)
	if !fileutil.IsImagePath(name) {
		ext := ".jpg"
		if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
			if e, ok := imageExtByType[mt]; ok {
				ext = e
			}
		}
		name = fmt.Sprintf("remote_%016x%s", xxhash.Sum64String(rawURL), ext)
	}
	return imageBlob{data: data, name: name}, nil
}

// decodeDataURL decodes a data:image/...;base64,... reference.
func decodeDataURL(s string) (imageBlob, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return imageBlob{}, errBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return imageBlob{}, errBadDataURL
	}

	params := strings.Split(meta, ";")
	ext, ok := imageExtByType[strings.ToLower(params[0])]
	if !ok {
		return imageBlob{}, fmt.Errorf("%w: type %q", errBadDataURL, params[0])
	}

	var data []byte
	var err error
	if params[len(params)-1] == "base64" {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var text string
		text, err = url.PathUnescape(payload)
		data = []byte(text)
	}
	if err != nil {
		return imageBlob{}, fmt.Errorf("%w: %v", errBadDataURL, err)
	}
	if len(data) > maxImageBytes {
		return imageBlob{}, errImageTooLarge
	}
	return imageBlob{data: data, name: "inline_" + uuid.NewString() + ext}, nil
}

// contentName returns "<hash8>_<name>" for data.
func contentName(data []byte, name string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))[:8] + "_" + name
}

// LocalStore copies images into a directory tree served at BaseURL.
// Files land in Dir/YYYYMMDD/<hash8>_<name>.
type LocalStore struct {
	Dir     string
	BaseURL string
	Client  *http.Client // used for remote images; nil means http.DefaultClient

	now func() time.Time
}

var _ Uploader = (*LocalStore)(nil)

// NewLocalStore returns a LocalStore writing below dir.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: baseURL}
}

// Upload implements Uploader.
func (s *LocalStore) Upload(ctx context.Context, ref ImageRef) (string, error) {
	blob, err := readImage(ctx, s.client(), ref)
	if err != nil {
		return "", err
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	day := now().Format("20060102")
	name := contentName(blob.data, blob.name)

	if _, err := fileutil.WriteFile(filepath.Join(s.Dir, day), name, blob.data); err != nil {
		return "", err
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + day + "/" + url.PathEscape(name), nil
}

func (s *LocalStore) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

// HTTPUploader posts images as multipart form data to an image host and
// reads the public URL from its JSON response.
type HTTPUploader struct {
	Endpoint  string      // upload URL
	FileField string      // form field carrying the file; default "file"
	URLPath   []string    // path to the URL in the JSON response, e.g. {"data", "url"}
	Header    http.Header // extra headers such as Authorization
	Client    *http.Client
}

var _ Uploader = (*HTTPUploader)(nil)

// Upload implements Uploader.
func (u *HTTPUploader) Upload(ctx context.Context, ref ImageRef) (string, error) {
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	blob, err := readImage(ctx, client, ref)
	if err != nil {
		return "", err
	}

	field := u.FileField
	if field == "" {
		field = "file"
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, blob.name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(blob.data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, imageUploadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, &body)
	if err != nil {
		return "", err
	}
	for k, vs := range u.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload to %s: %s", u.Endpoint, resp.Status)
	}

	keys := make([]any, len(u.URLPath))
	for i, k := range u.URLPath {
		keys[i] = k
	}
	v, ok := gson.NewFrom(string(raw)).Gets(keys...)
	if !ok || v.Nil() {
		return "", fmt.Errorf("upload to %s: no URL at %s in response", u.Endpoint, strings.Join(u.URLPath, "."))
	}
	return v.Str(), nil
}

// RateLimited wraps u so that at most perSecond uploads start each second,
// with bursts of up to burst.
func RateLimited(u Uploader, perSecond float64, burst int) Uploader {
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedUploader{next: u, lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

type rateLimitedUploader struct {
	next Uploader
	lim  *rate.Limiter
}

func (r *rateLimitedUploader) Upload(ctx context.Context, ref ImageRef) (string, error) {
	if err := r.lim.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Upload(ctx, ref)
}
