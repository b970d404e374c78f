package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/issuetracker/issue-tracker/internal/issues/service"
)

// decodeBody reads a JSON or form body into a flat map. Unreadable bodies
// decode as empty so they fall through to the field validation.
func decodeBody(c *gin.Context) map[string]any {
	fields := map[string]any{}

	switch c.ContentType() {
	case binding.MIMEMultipartPOSTForm:
		form, err := c.MultipartForm()
		if err != nil {
			return fields
		}
		for k, v := range form.Value {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
		return fields
	case binding.MIMEPOSTForm:
		// ParseForm skips DELETE bodies, so parse the raw body for every method
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return fields
		}
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return fields
		}
		for k := range values {
			fields[k] = values.Get(k)
		}
		return fields
	default:
		if c.Request.Body == nil {
			return fields
		}
		if err := json.NewDecoder(c.Request.Body).Decode(&fields); err != nil {
			return map[string]any{}
		}
		return fields
	}
}

// idField returns the _id as a string, or "" when it was not sent. Objects
// and arrays come back as their JSON text, which never parses as an id.
func idField(fields map[string]any) string {
	v := fields["_id"]
	if !service.Truthy(v) {
		return ""
	}
	if id, err := service.StringValue(v); err == nil {
		return id
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
