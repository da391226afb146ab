package telemetry

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex sync.Mutex
	files map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.files[id] = contents
}

func TestDumpRestyRedacts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "userId", Value: "secret-session"})
		w.Write([]byte("<html>welcome</html>"))
	}))
	defer server.Close()

	out := &memoryOutput{files: map[string]string{}}
	client := resty.New()
	DumpResty(client, out)

	_, err := client.R().
		SetHeader("Cookie", "userId=old-session").
		SetFormData(map[string]string{
			"sid":       "my-sid",
			"password":  "hunter2",
			"retention": "1",
		}).
		Post(server.URL + "/common_auth/login/sid/")
	require.NoError(t, err)

	require.Len(t, out.files, 1)
	contents, ok := out.files["0001_common_auth_login_sid.txt"]
	require.True(t, ok)

	require.Contains(t, contents, "POST "+server.URL+"/common_auth/login/sid/")
	require.Contains(t, contents, "retention=1")
	require.Contains(t, contents, "<html>welcome</html>")
	require.Contains(t, contents, "200 ")
	for _, secret := range []string{"hunter2", "my-sid", "secret-session", "old-session"} {
		require.False(t, strings.Contains(contents, secret), secret)
	}
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	out.Write("0001_root.txt", "contents")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "0001_root.txt", entries[0].Name())

	info, err := os.Stat(filepath.Join(dir, "0001_root.txt"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDumpName(t *testing.T) {
	require.Equal(t, "0002_root.txt", dumpName(2, "https://maimaidx-eng.com/"))
	require.Equal(t, "0010_maimai-mobile_record.txt", dumpName(10, "https://maimaidx-eng.com/maimai-mobile/record/?x=1"))
}
