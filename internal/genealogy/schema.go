package genealogy

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/xeipuuv/gojsonschema"
)

// DateObject is the shape of a Gramps date accepted by the create tools.
// dateval holds [day, month, year, slash], or eight values for ranges and
// spans.
type DateObject struct {
	Class    string `json:"_class,omitempty" jsonschema:"enum=Date"`
	Dateval  []any  `json:"dateval" jsonschema:"minItems=3,maxItems=8"`
	Quality  int    `json:"quality,omitempty" jsonschema:"minimum=0,maximum=2"`
	Modifier int    `json:"modifier,omitempty" jsonschema:"minimum=0,maximum=8"`
	Calendar int    `json:"calendar,omitempty" jsonschema:"minimum=0,maximum=5"`
	Newyear  int    `json:"newyear,omitempty"`
	Text     string `json:"text,omitempty"`
	Sortval  int    `json:"sortval,omitempty"`
	Year     int    `json:"year,omitempty"`
}

// Surname is one entry of a name's surname_list.
type Surname struct {
	Class      string `json:"_class,omitempty" jsonschema:"enum=Surname"`
	Surname    string `json:"surname"`
	Prefix     string `json:"prefix,omitempty"`
	Connector  string `json:"connector,omitempty"`
	Primary    bool   `json:"primary,omitempty"`
	Origintype any    `json:"origintype,omitempty"`
}

// NameObject is the shape of a person's primary_name.
type NameObject struct {
	Class       string      `json:"_class,omitempty" jsonschema:"enum=Name"`
	FirstName   string      `json:"first_name,omitempty"`
	SurnameList []Surname   `json:"surname_list,omitempty"`
	Suffix      string      `json:"suffix,omitempty"`
	Title       string      `json:"title,omitempty"`
	Call        string      `json:"call,omitempty"`
	Nick        string      `json:"nick,omitempty"`
	Type        any         `json:"type,omitempty"`
	Date        *DateObject `json:"date,omitempty"`
}

var (
	dateSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) { return compileSchema(&DateObject{}) })
	nameSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) { return compileSchema(&NameObject{}) })
)

// compileSchema reflects v into a JSON Schema. Unknown keys stay allowed
// because Gramps adds fields of its own to these objects.
func compileSchema(v any) (*gojsonschema.Schema, error) {
	r := &jsonschema.Reflector{AllowAdditionalProperties: true, DoNotReference: true}
	s := r.Reflect(v)
	s.Version = ""
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
}

// SchemaFor returns the generated JSON Schema document for a date or name
// object, as served to clients.
func SchemaFor(v any) ([]byte, error) {
	r := &jsonschema.Reflector{AllowAdditionalProperties: true, DoNotReference: true}
	return json.MarshalIndent(r.Reflect(v), "", "  ")
}

// ValidateDate checks a date object. A nil date is valid.
func ValidateDate(field string, date map[string]any) error {
	if date == nil {
		return nil
	}
	return validateAgainst(field, dateSchema, date)
}

// ValidateName checks a name object and requires a first name or surname.
func ValidateName(field string, name map[string]any) error {
	if len(name) == 0 {
		return apperrors.NewValidationError(field, "", "name object is required")
	}
	if err := validateAgainst(field, nameSchema, name); err != nil {
		return err
	}
	if name["first_name"] == nil && name["surname_list"] == nil {
		return apperrors.NewValidationError(field, "", "name needs a first_name or a surname_list")
	}
	return nil
}

func validateAgainst(field string, schema func() (*gojsonschema.Schema, error), v map[string]any) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compiling %s schema: %w", field, err)
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return apperrors.NewValidationError(field, "", err.Error())
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.Field()+": "+e.Description())
	}
	return apperrors.NewValidationError(field, "", strings.Join(msgs, "; "))
}

// validateChoice checks value against the allowed values of field.
func validateChoice(field, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return apperrors.NewValidationError(field, value, "must be one of "+strings.Join(allowed, ", "))
}

// requireText fails when value is blank.
func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field, "", "is required")
	}
	return nil
}
