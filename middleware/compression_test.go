/*
Copyright NetFoundry Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"
)

var page = strings.Repeat("<p>hello static world</p>\n", 64)

func fileHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/html; charset=utf-8")
		writer.Header().Set("Content-Length", strconv.Itoa(len(body)))
		writer.WriteHeader(status)
		if request.Method != http.MethodHead {
			_, _ = writer.Write([]byte(body))
		}
	})
}

func Test_CompressionHandler(t *testing.T) {
	t.Run("brotli is used when accepted", func(t *testing.T) {
		req := require.New(t)
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Accept-Encoding", "gzip, br")
		recorder := httptest.NewRecorder()

		NewCompressionHandler(fileHandler(http.StatusOK, page)).ServeHTTP(recorder, request)

		req.Equal(http.StatusOK, recorder.Code)
		req.Equal("br", recorder.Header().Get("Content-Encoding"))
		req.Equal("Accept-Encoding", recorder.Header().Get("Vary"))
		req.Empty(recorder.Header().Get("Content-Length"))
		req.Less(recorder.Body.Len(), len(page))

		body, err := io.ReadAll(brotli.NewReader(recorder.Body))
		req.NoError(err)
		req.Equal(page, string(body))
	})

	t.Run("gzip is used when brotli is not accepted", func(t *testing.T) {
		req := require.New(t)
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		NewCompressionHandler(fileHandler(http.StatusOK, page)).ServeHTTP(recorder, request)

		req.Equal("gzip", recorder.Header().Get("Content-Encoding"))
		reader, err := gzip.NewReader(recorder.Body)
		req.NoError(err)
		body, err := io.ReadAll(reader)
		req.NoError(err)
		req.Equal(page, string(body))
	})

	t.Run("responses pass through without Accept-Encoding", func(t *testing.T) {
		req := require.New(t)
		recorder := httptest.NewRecorder()

		NewCompressionHandler(fileHandler(http.StatusOK, page)).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		req.Empty(recorder.Header().Get("Content-Encoding"))
		req.Equal(strconv.Itoa(len(page)), recorder.Header().Get("Content-Length"))
		req.Equal(page, recorder.Body.String())
	})

	t.Run("error responses are not compressed", func(t *testing.T) {
		req := require.New(t)
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Accept-Encoding", "br")
		recorder := httptest.NewRecorder()

		NewCompressionHandler(fileHandler(http.StatusNotFound, "Not Found\n")).ServeHTTP(recorder, request)

		req.Equal(http.StatusNotFound, recorder.Code)
		req.Empty(recorder.Header().Get("Content-Encoding"))
		req.Equal("Not Found\n", recorder.Body.String())
	})

	t.Run("HEAD responses are not compressed", func(t *testing.T) {
		req := require.New(t)
		request := httptest.NewRequest(http.MethodHead, "/", nil)
		request.Header.Set("Accept-Encoding", "br")
		recorder := httptest.NewRecorder()

		NewCompressionHandler(fileHandler(http.StatusOK, page)).ServeHTTP(recorder, request)

		req.Equal(http.StatusOK, recorder.Code)
		req.Empty(recorder.Header().Get("Content-Encoding"))
		req.Equal(strconv.Itoa(len(page)), recorder.Header().Get("Content-Length"))
		req.Zero(recorder.Body.Len())
	})

	t.Run("an implicit 200 from Write is compressed", func(t *testing.T) {
		req := require.New(t)
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Accept-Encoding", "br")
		recorder := httptest.NewRecorder()

		handler := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "text/plain")
			_, _ = writer.Write([]byte(page))
		})
		NewCompressionHandler(handler).ServeHTTP(recorder, request)

		req.Equal("br", recorder.Header().Get("Content-Encoding"))
		body, err := io.ReadAll(brotli.NewReader(recorder.Body))
		req.NoError(err)
		req.Equal(page, string(body))
	})
}
