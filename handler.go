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

package xstatic

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// FileReader returns the content of a resolved file.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// OsFileReader is a FileReader backed by os.ReadFile.
type OsFileReader struct{}

func (OsFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Response is the outcome of handling a single request path.
type Response struct {
	Status  int
	Body    []byte
	Project string
	Path    string // resolved file, empty unless Status is http.StatusOK
}

// FileHandler serves read-only files for whichever project its Router selects.
type FileHandler struct {
	router   Router
	resolver *PathResolver
	reader   FileReader
}

var _ http.Handler = (*FileHandler)(nil)

func NewFileHandler(router Router, resolver *PathResolver, reader FileReader) *FileHandler {
	if reader == nil {
		reader = OsFileReader{}
	}

	return &FileHandler{
		router:   router,
		resolver: resolver,
		reader:   reader,
	}
}

// Respond maps a request URI path to a status and body. It always produces a response: 200 with the file content,
// 400 when the path escapes the web root and 404 when the file cannot be resolved or read.
func (handler *FileHandler) Respond(uriPath string) *Response {
	project, relativePath := handler.router.Route(uriPath)

	path, err := handler.resolver.Resolve(project, relativePath)
	if err != nil {
		if errors.Is(err, ErrTraversal) {
			return statusResponse(http.StatusBadRequest, project)
		}
		return statusResponse(http.StatusNotFound, project)
	}

	body, err := handler.reader.ReadFile(path)
	if err != nil {
		return statusResponse(http.StatusNotFound, project)
	}

	return &Response{
		Status:  http.StatusOK,
		Body:    body,
		Project: project,
		Path:    path,
	}
}

func (handler *FileHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet && request.Method != http.MethodHead {
		writer.Header().Set("Allow", "GET, HEAD")
		http.Error(writer, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	response := handler.Respond(request.URL.Path)

	listener := ""
	if serverContext := ServerContextFromRequestContext(request.Context()); serverContext != nil {
		listener = serverContext.Assignment.Name()
	}
	pfxlog.Logger().WithField("listener", listener).
		WithField("project", response.Project).
		WithField("status", response.Status).
		Debugf("%s %s", request.Method, request.URL.Path)

	if response.Status == http.StatusOK {
		writer.Header().Set("Content-Type", contentType(response.Path, response.Body))
	} else {
		writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		writer.Header().Set("X-Content-Type-Options", "nosniff")
	}
	writer.Header().Set("Content-Length", strconv.Itoa(len(response.Body)))
	writer.WriteHeader(response.Status)

	if request.Method != http.MethodHead {
		_, _ = writer.Write(response.Body)
	}
}

func statusResponse(status int, project string) *Response {
	return &Response{
		Status:  status,
		Body:    []byte(http.StatusText(status) + "\n"),
		Project: project,
	}
}

func contentType(path string, body []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(body)
}
