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

// Package middleware contains http.Handler wrappers applied to every listener.
package middleware

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/michaelquigley/pfxlog"
)

// NewCompressionHandler wraps handler so that successful responses are compressed with brotli or gzip, whichever the
// client prefers in Accept-Encoding. Responses to HEAD requests and non-200 responses are passed through untouched.
func NewCompressionHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		compressionWriter := &compressionWriter{
			ResponseWriter: writer,
			request:        request,
		}

		defer func() {
			if err := compressionWriter.Close(); err != nil {
				pfxlog.Logger().WithError(err).Debug("error closing response compressor")
			}
		}()

		handler.ServeHTTP(compressionWriter, request)
	})
}

type compressionWriter struct {
	http.ResponseWriter
	request     *http.Request
	compressor  io.WriteCloser
	wroteHeader bool
}

func (w *compressionWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if status == http.StatusOK && w.request.Method != http.MethodHead && w.Header().Get("Content-Encoding") == "" {
		w.compressor = brotli.HTTPCompressor(w.ResponseWriter, w.request)

		// the compressed length is unknown up front
		if w.Header().Get("Content-Encoding") != "" {
			w.Header().Del("Content-Length")
		}
	}

	w.ResponseWriter.WriteHeader(status)
}

func (w *compressionWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	if w.compressor != nil {
		return w.compressor.Write(data)
	}

	return w.ResponseWriter.Write(data)
}

func (w *compressionWriter) Close() error {
	if w.compressor != nil {
		return w.compressor.Close()
	}
	return nil
}

func (w *compressionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
