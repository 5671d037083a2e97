package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DownloadContent is the file body served by the download action.
const DownloadContent = "interface inside\nip address 192.168.45.45\n"

// DownloadFilename is the filename advertised via Content-Disposition.
const DownloadFilename = "export-config.txt"

const duplicateNameMessage = "Validation failed due to a duplicate name"
const invalidUUIDMessage = "Validation failed due to an invalid UUID"

// FakeDevice is an in-process FDM device. It implements the token endpoint
// (password, refresh_token and revoke_token grants), the apispec endpoint,
// and CRUD for network objects with the real device's 422 error texts.
type FakeDevice struct {
	Server *httptest.Server

	Username string
	Password string

	// V1Fallback makes the v2 token endpoint answer 401 so only v1 works,
	// to exercise the client's API version walk.
	V1Fallback bool

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	objects      map[string]map[string]interface{}
	order        []string
	expireNext   int

	TokenGrants  []string
	SpecFetches  int
	UploadedFile []byte
}

// NewFakeDevice starts the fake device with default credentials.
func NewFakeDevice() *FakeDevice {
	d := &FakeDevice{
		Username: "admin",
		Password: "Admin123",
		objects:  make(map[string]map[string]interface{}),
	}
	d.Server = httptest.NewServer(http.HandlerFunc(d.handle))
	return d
}

// Close shuts the underlying server down.
func (d *FakeDevice) Close() {
	d.Server.Close()
}

// URL returns the device base URL.
func (d *FakeDevice) URL() string {
	return d.Server.URL
}

// AccessToken returns the currently valid access token.
func (d *FakeDevice) AccessToken() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accessToken
}

// ExpireToken makes the next n authenticated requests fail with 408, the
// device's token-expired status.
func (d *FakeDevice) ExpireToken(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expireNext = n
}

// ObjectCount returns the number of stored network objects.
func (d *FakeDevice) ObjectCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.objects)
}

// Object returns a copy of a stored object by id, or nil.
func (d *FakeDevice) Object(id string) map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	obj, ok := d.objects[id]
	if !ok {
		return nil
	}
	return copyObject(obj)
}

// Seed stores an object directly, assigning id and version. Returns the id.
func (d *FakeDevice) Seed(obj map[string]interface{}) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored := copyObject(obj)
	id := uuid.NewString()
	stored["id"] = id
	stored["version"] = uuid.NewString()
	d.objects[id] = stored
	d.order = append(d.order, id)
	return id
}

func (d *FakeDevice) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/fdm/token"):
		d.handleToken(w, r)
	case path == "/apispec/ngfw.json":
		if !d.authorized(w, r) {
			return
		}
		d.mu.Lock()
		d.SpecFetches++
		d.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, SpecJSON)
	case path == "/api/fdm/v2/object/networks":
		if !d.authorized(w, r) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			d.handleList(w, r)
		case http.MethodPost:
			d.handleAdd(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, "/api/fdm/v2/object/networks/"):
		if !d.authorized(w, r) {
			return
		}
		id := strings.TrimPrefix(path, "/api/fdm/v2/object/networks/")
		d.handleObject(w, r, id)
	case path == "/api/fdm/v2/action/uploaddiskfile":
		if !d.authorized(w, r) {
			return
		}
		d.handleUpload(w, r)
	case strings.HasPrefix(path, "/api/fdm/v2/action/downloaddiskfile/"):
		if !d.authorized(w, r) {
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadFilename))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.WriteString(w, DownloadContent)
	case strings.HasPrefix(path, "/api/fdm/v2/operational/systeminfo/"):
		if !d.authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"softwareVersion": "7.2.4-165",
			"hostname":        "firepower",
			"type":            "systeminformation",
		})
	default:
		writeJSON(w, http.StatusNotFound, errorBody("Resource not found: "+path))
	}
}

func (d *FakeDevice) handleToken(w http.ResponseWriter, r *http.Request) {
	if d.V1Fallback && strings.HasPrefix(r.URL.Path, "/api/fdm/v2/") {
		writeJSON(w, http.StatusUnauthorized, errorBody("Unsupported API version"))
		return
	}

	var req map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Malformed token request"))
		return
	}
	grant, _ := req["grant_type"].(string)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.TokenGrants = append(d.TokenGrants, grant)

	switch grant {
	case "password":
		user, _ := req["username"].(string)
		pass, _ := req["password"].(string)
		if user != d.Username || pass != d.Password {
			writeJSON(w, http.StatusBadRequest, errorBody("Invalid credentials"))
			return
		}
	case "refresh_token":
		token, _ := req["refresh_token"].(string)
		if token == "" || token != d.refreshToken {
			writeJSON(w, http.StatusBadRequest, errorBody("Invalid refresh token"))
			return
		}
	case "revoke_token":
		d.accessToken = ""
		d.refreshToken = ""
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "OK"})
		return
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("Unknown grant type"))
		return
	}

	d.accessToken = uuid.NewString()
	d.refreshToken = uuid.NewString()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  d.accessToken,
		"refresh_token": d.refreshToken,
		"expires_in":    1800,
	})
}

func (d *FakeDevice) authorized(w http.ResponseWriter, r *http.Request) bool {
	d.mu.Lock()
	if d.expireNext > 0 {
		d.expireNext--
		d.mu.Unlock()
		writeJSON(w, http.StatusRequestTimeout, errorBody("Access token expired"))
		return false
	}
	token := d.accessToken
	d.mu.Unlock()

	if token == "" || r.Header.Get("Authorization") != "Bearer "+token {
		writeJSON(w, http.StatusUnauthorized, errorBody("Invalid access token"))
		return false
	}
	return true
}

func (d *FakeDevice) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := intParam(q.Get("limit"), 10)
	offset := intParam(q.Get("offset"), 0)
	var nameFilter string
	if f := q.Get("filter"); strings.HasPrefix(f, "name:") {
		nameFilter = strings.TrimPrefix(f, "name:")
	}

	d.mu.Lock()
	var all []map[string]interface{}
	for _, id := range d.order {
		obj, ok := d.objects[id]
		if !ok {
			continue
		}
		if nameFilter != "" {
			if name, _ := obj["name"].(string); name != nameFilter {
				continue
			}
		}
		all = append(all, copyObject(obj))
	}
	d.mu.Unlock()

	items := []map[string]interface{}{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		items = append(items, all[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"paging": map[string]interface{}{
			"offset": offset,
			"limit":  limit,
			"count":  len(all),
		},
	})
}

func (d *FakeDevice) handleAdd(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Malformed request body"))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	name, _ := body["name"].(string)
	if name != "" {
		for _, obj := range d.objects {
			if existing, _ := obj["name"].(string); existing == name {
				writeJSON(w, http.StatusUnprocessableEntity, errorBody(duplicateNameMessage))
				return
			}
		}
	}

	stored := copyObject(body)
	id := uuid.NewString()
	stored["id"] = id
	stored["version"] = uuid.NewString()
	d.objects[id] = stored
	d.order = append(d.order, id)
	writeJSON(w, http.StatusOK, copyObject(stored))
}

func (d *FakeDevice) handleObject(w http.ResponseWriter, r *http.Request, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	obj, exists := d.objects[id]
	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeJSON(w, http.StatusNotFound, errorBody("Object not found"))
			return
		}
		writeJSON(w, http.StatusOK, copyObject(obj))
	case http.MethodPut:
		if !exists {
			writeJSON(w, http.StatusNotFound, errorBody("Object not found"))
			return
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("Malformed request body"))
			return
		}
		stored := copyObject(body)
		stored["id"] = id
		stored["version"] = uuid.NewString()
		d.objects[id] = stored
		writeJSON(w, http.StatusOK, copyObject(stored))
	case http.MethodDelete:
		if !exists {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(invalidUUIDMessage))
			return
		}
		delete(d.objects, id)
		for i, oid := range d.order {
			if oid == id {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (d *FakeDevice) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("fileToUpload")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Missing fileToUpload part"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Unreadable upload"))
		return
	}

	d.mu.Lock()
	d.UploadedFile = content
	d.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":           uuid.NewString(),
		"diskFileName": header.Filename,
		"type":         "file",
	})
}

// errorBody mimics the device's nested error shape; the engine only greps
// the raw body for known message texts.
func errorBody(message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"severity": "ERROR",
			"messages": []interface{}{
				map[string]interface{}{"description": message},
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func copyObject(obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}
