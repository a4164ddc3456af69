package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/rajasatyajit/lifesaver/internal/errors"
	"github.com/rajasatyajit/lifesaver/internal/models"
	"github.com/rajasatyajit/lifesaver/pkg/utils"
)

const multipartMemory = 1 << 20

var (
	latKeys      = []string{"lat", "latitude"}
	lngKeys      = []string{"lng", "lon", "longitude"}
	categoryKeys = []string{"categories", "category", "categories[]", "category[]"}
)

var errInvalidCoordinates = apperrors.ValidationError{
	Field:   "lat,lng",
	Code:    apperrors.CodeInvalidCoordinates,
	Message: "lat and lng must be numbers",
}

// readBody decodes a JSON, urlencoded or multipart request into a loose map.
// Form fields with several values become []string; multipart files are left
// on r.MultipartForm.
func readBody(r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, bodyError(err)
		}
		return formToMap(r.MultipartForm.Value), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		return formToMap(r.PostForm), nil
	default:
		body := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, bodyError(err)
		}
		return body, nil
	}
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, apperrors.ErrPayloadTooLarge)
	}
	return apperrors.ValidationError{Field: "body", Code: apperrors.CodeInvalidBody, Message: "malformed request body"}
}

func formToMap(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}

// parseSubmission applies the lenient field rules of the report form:
// alternative key names, several category encodings and loosely typed
// answer flags.
func parseSubmission(body map[string]any) (models.Submission, error) {
	lat, ok := parseCoordinate(first(body, latKeys))
	if !ok {
		return models.Submission{}, errInvalidCoordinates
	}
	lng, ok := parseCoordinate(first(body, lngKeys))
	if !ok {
		return models.Submission{}, errInvalidCoordinates
	}

	var categories []string
	for _, key := range categoryKeys {
		if v, present := body[key]; present {
			categories = append(categories, parseStringArray(v)...)
		}
	}

	return models.Submission{
		Lat:        lat,
		Lng:        lng,
		Categories: utils.UniqueLower(categories),
		Answers:    parseAnswers(body),
		Text:       trimmedString(body["text"]),
		Contact:    trimmedString(body["contact"]),
		PhotoURL:   trimmedString(body["photoUrl"]),
	}, nil
}

// first returns the value of the first key that is present and not null
func first(body map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := body[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func parseCoordinate(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case []string:
		if len(t) > 0 {
			return parseCoordinate(t[0])
		}
	}
	return 0, false
}

// parseStringArray accepts an array, a JSON-encoded array or a comma
// separated string.
func parseStringArray(v any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				for _, part := range strings.Split(s, ",") {
					add(part)
				}
			} else if item != nil {
				add(fmt.Sprint(item))
			}
		}
	case []string:
		for _, s := range t {
			for _, part := range strings.Split(s, ",") {
				add(part)
			}
		}
	case string:
		var arr []any
		if err := json.Unmarshal([]byte(t), &arr); err == nil {
			for _, item := range arr {
				if item != nil {
					add(fmt.Sprint(item))
				}
			}
			return out
		}
		for _, part := range strings.Split(t, ",") {
			add(part)
		}
	}
	return out
}

// parseAnswers reads the "answers" object (or its JSON encoding). Flat keys
// such as answers[fire], answers.fire or answers_fire take precedence.
func parseAnswers(body map[string]any) models.Answers {
	var structured map[string]any
	switch t := body["answers"].(type) {
	case map[string]any:
		structured = t
	case string:
		_ = json.Unmarshal([]byte(t), &structured)
	}

	var answers models.Answers
	for _, field := range models.AnswerFields {
		var value any
		if structured != nil {
			value = structured[field]
		}
		for _, key := range []string{"answers[" + field + "]", "answers." + field, "answers_" + field} {
			if v, ok := body[key]; ok {
				value = v
				break
			}
		}
		answers.Set(field, truthy(value))
	}
	return answers
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	case string:
		return t == "true" || t == "1" || strings.EqualFold(t, "on")
	case []string:
		// checkbox plus hidden input: the last value wins
		if len(t) > 0 {
			return truthy(t[len(t)-1])
		}
	}
	return false
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// parseUpdate reads a PATCH body. Absent fields stay nil; wrongly typed
// fields are rejected with their own error code.
func parseUpdate(body map[string]any) (models.ReportUpdate, error) {
	var upd models.ReportUpdate

	if v, ok := body["status"]; ok {
		s, isString := v.(string)
		if !isString {
			return upd, apperrors.ValidationError{Field: "status", Code: apperrors.CodeInvalidStatus, Message: "status must be a string"}
		}
		status := models.Status(s)
		upd.Status = &status
	}

	if v, ok := body["assignedTo"]; ok {
		switch t := v.(type) {
		case nil:
			upd.ClearAssignedTo = true
		case string:
			if t == "" {
				upd.ClearAssignedTo = true
			} else {
				upd.AssignedTo = &t
			}
		default:
			return upd, apperrors.ValidationError{Field: "assignedTo", Code: apperrors.CodeInvalidAssignedTo, Message: "assignedTo must be a string or null"}
		}
	}

	if v, ok := body["text"]; ok {
		s, isString := v.(string)
		if !isString {
			return upd, apperrors.ValidationError{Field: "text", Code: apperrors.CodeInvalidText, Message: "text must be a string"}
		}
		upd.Text = &s
	}

	return upd, nil
}

// parseFilter collects repeated and comma separated query parameters
func parseFilter(query map[string][]string) models.ReportFilter {
	var categories []string
	for _, key := range categoryKeys {
		categories = append(categories, utils.NormalizeTokens(query[key]...)...)
	}

	f := models.ReportFilter{Categories: categories}
	for _, u := range utils.NormalizeTokens(query["urgency"]...) {
		f.Urgencies = append(f.Urgencies, models.Urgency(u))
	}
	for _, s := range utils.NormalizeTokens(query["status"]...) {
		f.Statuses = append(f.Statuses, models.Status(s))
	}
	return f.Normalize()
}
