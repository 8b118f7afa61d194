package web

import (
	"net/http"
	"reflect"
	"strings"
)

// bind copies form values into the string fields of dst, a pointer to a
// struct, by their form tag and validates the result.
func (s *Server) bind(r *http.Request, dst any) error {
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("form"), ",")
		if name == "" || name == "-" || v.Field(i).Kind() != reflect.String {
			continue
		}
		v.Field(i).SetString(strings.TrimSpace(r.FormValue(name)))
	}

	if err := s.validate.Struct(dst); err != nil {
		return invalidRequest(err)
	}
	return nil
}
