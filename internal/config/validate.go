package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/specialistvlad/refgraph/internal/version"
)

// modelValidate is the validator instance for configuration models.
// Initialized in init() with custom validators.
var modelValidate *validator.Validate

var familyKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

func init() {
	modelValidate = validator.New(validator.WithRequiredStructEnabled())
	_ = modelValidate.RegisterValidation("familykey", func(fl validator.FieldLevel) bool {
		return familyKeyPattern.MatchString(fl.Field().String())
	})
}

// Validate checks field constraints and the cross-field rules the struct
// tags cannot express: unique family keys and toolchain dialects that refer
// to configured families.
func (m *Model) Validate() error {
	if err := modelValidate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	catalog, err := m.Catalog()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, tc := range m.Toolchains {
		for _, d := range tc.Dialects {
			if _, err := catalog.Family(d); err == nil {
				continue
			}
			if _, err := catalog.ParseDialect(d); err != nil {
				return fmt.Errorf("invalid configuration: toolchain %q: %w", tc.Name, err)
			}
		}
	}
	return nil
}

// Catalog builds the version catalog from the configured families.
func (m *Model) Catalog() (*version.Catalog, error) {
	specs := make([]version.FamilySpec, 0, len(m.Families))
	for _, f := range m.Families {
		specs = append(specs, version.FamilySpec{
			Key:           f.Key,
			Name:          f.Name,
			Versions:      f.Versions,
			DialectPrefix: f.DialectPrefix,
			StdPrefix:     f.StdPrefix,
			Aliases:       f.Aliases,
		})
	}
	return version.NewCatalog(specs...)
}
