package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gurkanbulca/tasklist/internal/middleware"
	"github.com/gurkanbulca/tasklist/internal/service"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// readValues decodes a JSON object or a urlencoded form into url.Values so
// handlers treat both encodings the same. JSON arrays become repeated values.
func readValues(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return readForm(w, r)
	default:
		return readJSON(w, r)
	}
}

func readForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if r.PostForm == nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}
	if err := middleware.ParseForm(r); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return r.PostForm, nil
}

func readJSON(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	values := url.Values{}
	if r.Body == nil {
		return values, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return values, nil
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	for key, v := range body {
		switch val := v.(type) {
		case []any:
			for _, item := range val {
				if s, ok := scalar(item); ok {
					values.Add(key, s)
				}
			}
		default:
			if s, ok := scalar(val); ok {
				values.Set(key, s)
			}
		}
	}
	return values, nil
}

func scalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

func taskFields(values url.Values) service.TaskFields {
	return service.TaskFields{
		Name:        values.Get("name"),
		Description: values.Get("description"),
		Status:      values.Get("status"),
		DueDate:     values.Get("due_date"),
	}
}

// taskIDs collects "ids" and "ids[]". Each value may also be a comma
// separated list.
func taskIDs(values url.Values) []string {
	var ids []string
	for _, key := range []string{"ids", "ids[]"} {
		for _, v := range values[key] {
			for _, id := range strings.Split(v, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

func listInput(query url.Values) service.ListInput {
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("per_page"))
	return service.ListInput{
		Status:     query.Get("status"),
		SearchName: query.Get("searchName"),
		Page:       page,
		PerPage:    perPage,
	}
}
