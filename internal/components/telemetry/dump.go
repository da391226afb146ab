package telemetry

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

const redacted = "<redacted>"

// sensitiveHeaders and sensitiveFields never reach a dump.
var (
	sensitiveHeaders = []string{"Cookie", "Set-Cookie", "Authorization"}
	sensitiveFields  = []string{"password", "sid"}
)

// DumpOutput receives one rendered request/response exchange per call.
type DumpOutput interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput clears and recreates the given directory.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http dump", "id", id, "err", err)
	}
}

// DumpResty writes every response (and the request that caused it) of the
// client to out, named by a sequence number and the request path.
func DumpResty(client *resty.Client, out DumpOutput) {
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := atomic.AddUint64(&counter, 1)
		out.Write(dumpName(id, res.Request.URL), formatExchange(res))
		return nil
	})
}

func dumpName(id uint64, rawUrl string) string {
	name := rawUrl
	parsed, err := url.Parse(rawUrl)
	if err == nil {
		name = parsed.Path
	}
	name = strings.Trim(strings.ReplaceAll(name, "/", "_"), "_")
	if name == "" {
		name = "root"
	}
	return fmt.Sprintf("%04d_%s.txt", id, name)
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			if isSensitiveHeader(k) {
				v = redacted
			}
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func isSensitiveHeader(key string) bool {
	for _, h := range sensitiveHeaders {
		if strings.EqualFold(h, key) {
			return true
		}
	}
	return false
}

func formatForm(form url.Values) string {
	if len(form) == 0 {
		return ""
	}
	clean := url.Values{}
	for k, v := range form {
		clean[k] = v
	}
	for _, field := range sensitiveFields {
		if clean.Has(field) {
			clean.Set(field, redacted)
		}
	}
	return clean.Encode()
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: request form
// 5: response status
// 6: response url
// 7: response headers in ("Key: Value" format)
// 8: response body
const exchangeTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s %s

%s

%s`

func formatExchange(res *resty.Response) string {
	var requestHeaders http.Header
	if res.Request.RawRequest != nil {
		requestHeaders = res.Request.RawRequest.Header
	}

	responseUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		responseUrl = res.RawResponse.Request.URL.String()
	}

	return fmt.Sprintf(
		exchangeTemplate,

		res.Request.Method, res.Request.URL,
		formatHeaders(requestHeaders),
		formatForm(res.Request.FormData),

		strconv.Itoa(res.StatusCode()), responseUrl,
		formatHeaders(res.Header()),
		res.String(),
	)
}
