package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://github.com/umputun/maildigest/config.schema.json"

// Schema returns JSON schema generated from Config struct tags
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true, RequiredFromJSONSchemaTags: true}
	return r.Reflect(&Config{})
}

// VerifyAgainstSchema validates the config against the generated JSON schema
func VerifyAgainstSchema(cfg *Config) error {
	compiled, err := compileSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	doc, err := validator.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	// unset lists and flags are marshaled as null, the schema describes them by their set type
	if err := compiled.Validate(dropNulls(doc)); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("validation failed: %s", strings.Join(violations(verr), "; "))
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func compileSchema() (*validator.Schema, error) {
	s := Schema()
	s.ID = jsonschema.ID(schemaURL)
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := validator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	c := validator.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	res, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return res, nil
}

// violations flattens validation error tree into "path: keyword" lines, e.g. "llm.endpoint: minLength"
func violations(verr *validator.ValidationError) []string {
	if len(verr.Causes) == 0 {
		path := strings.Join(verr.InstanceLocation, ".")
		if path == "" {
			path = "config"
		}
		keyword := "invalid"
		if kp := verr.ErrorKind.KeywordPath(); len(kp) > 0 {
			keyword = kp[len(kp)-1]
		}
		return []string{path + ": " + keyword}
	}
	var res []string
	for _, c := range verr.Causes {
		res = append(res, violations(c)...)
	}
	return res
}

func dropNulls(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			if item == nil {
				delete(val, k)
				continue
			}
			val[k] = dropNulls(item)
		}
	case []any:
		for i, item := range val {
			val[i] = dropNulls(item)
		}
	}
	return v
}
