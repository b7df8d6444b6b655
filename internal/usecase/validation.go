package usecase

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

var (
	nonDigits     = regexp.MustCompile(`\D`)
	postalCodeFmt = regexp.MustCompile(`^[0-9]{5}$`)
	siretFmt      = regexp.MustCompile(`^[0-9]{14}$`)
)

func enumWithBlank(values ...string) []interface{} {
	out := []interface{}{""}
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func text(max int) map[string]interface{} {
	return map[string]interface{}{"type": "string", "maxLength": max}
}

// Schemas por etapa: só filtram campos e tipos. Obrigatoriedade é checada no CompleteStep,
// pois o autosave manda dados parciais.
var stepSchemas = map[int]map[string]interface{}{
	entity.StepContact: {
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"client_type":  map[string]interface{}{"type": "string", "enum": enumWithBlank("particulier", "professionnel")},
			"civility":     map[string]interface{}{"type": "string", "enum": enumWithBlank("M.", "Mme")},
			"first_name":   text(100),
			"last_name":    text(100),
			"email":        text(254),
			"phone":        text(30),
			"company_name": text(200),
			"siret":        text(20),
		},
	},
	entity.StepAddress: {
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"address":            text(255),
			"address_complement": text(255),
			"postal_code":        map[string]interface{}{"type": "string", "pattern": "^([0-9]{5})?$"},
			"city":               text(100),
			"parcel_reference":   text(50),
		},
	},
	entity.StepTechnical: {
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"request_type":        map[string]interface{}{"type": "string", "enum": enumWithBlank(entity.RequestTypes()...)},
			"power_kva":           map[string]interface{}{"type": "number", "minimum": 0, "maximum": entity.MaxPowerKVA},
			"phase_type":          map[string]interface{}{"type": "string", "enum": enumWithBlank(entity.PhaseMono, entity.PhaseTri)},
			"building_type":       text(50),
			"project_description": text(2000),
			"desired_date":        text(10),
		},
	},
}

var finalizeSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"consent_accepted": map[string]interface{}{"type": "boolean"},
		"comments":         text(2000),
	},
}

var compiledSchemas = map[int]*gojsonschema.Schema{}

var compiledFinalize *gojsonschema.Schema

func init() {
	for step, s := range stepSchemas {
		compiledSchemas[step] = mustCompile(s)
	}
	compiledFinalize = mustCompile(finalizeSchema)
}

func mustCompile(s map[string]interface{}) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid json schema: %v", err))
	}
	return schema
}

// ValidateStepFields checks a step payload against the step's field allowlist.
func ValidateStepFields(step int, data map[string]interface{}) []ValidationError {
	schema, ok := compiledSchemas[step]
	if !ok {
		return []ValidationError{{Field: "step", Message: fmt.Sprintf("must be between %d and %d", entity.StepContact, entity.LastDataStep)}}
	}
	return runSchema(schema, data)
}

func validateFinalizeFields(data map[string]interface{}) []ValidationError {
	return runSchema(compiledFinalize, data)
}

func runSchema(schema *gojsonschema.Schema, data map[string]interface{}) []ValidationError {
	if data == nil {
		data = map[string]interface{}{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return []ValidationError{{Field: "(root)", Message: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	var out []ValidationError
	for _, e := range result.Errors() {
		field := e.Field()
		if e.Type() == "additional_property_not_allowed" {
			if p, ok := e.Details()["property"].(string); ok {
				field = p
			}
			out = append(out, ValidationError{Field: field, Message: "is not allowed"})
			continue
		}
		out = append(out, ValidationError{Field: field, Message: e.Description()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// mergeInto sobrepõe os campos enviados no valor atual (round-trip JSON).
func mergeInto(target interface{}, data map[string]interface{}) error {
	current, err := json.Marshal(target)
	if err != nil {
		return err
	}
	merged := map[string]interface{}{}
	if err := json.Unmarshal(current, &merged); err != nil {
		return err
	}
	for k, v := range data {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

// RequiredStepErrors lists what is still missing or malformed before a step can be completed.
func RequiredStepErrors(step int, lead *entity.Lead) []ValidationError {
	switch step {
	case entity.StepContact:
		return validateContact(lead.Contact)
	case entity.StepAddress:
		return validateAddress(lead.Address)
	case entity.StepTechnical:
		return validateTechnical(lead.Technical)
	}
	return []ValidationError{{Field: "step", Message: "is unknown"}}
}

func validateContact(c entity.Contact) []ValidationError {
	var errs []ValidationError

	switch c.ClientType {
	case "":
		errs = append(errs, ValidationError{"client_type", "is required"})
	case "particulier", "professionnel":
	default:
		errs = append(errs, ValidationError{"client_type", "must be particulier or professionnel"})
	}

	if strings.TrimSpace(c.FirstName) == "" {
		errs = append(errs, ValidationError{"first_name", "is required"})
	}
	if strings.TrimSpace(c.LastName) == "" {
		errs = append(errs, ValidationError{"last_name", "is required"})
	}

	if strings.TrimSpace(c.Email) == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if !isValidEmail(c.Email) {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}

	if strings.TrimSpace(c.Phone) == "" {
		errs = append(errs, ValidationError{"phone", "is required"})
	} else if !isValidFrenchPhone(c.Phone) {
		errs = append(errs, ValidationError{"phone", "must be a valid French phone number"})
	}

	if c.ClientType == "professionnel" {
		if strings.TrimSpace(c.CompanyName) == "" {
			errs = append(errs, ValidationError{"company_name", "is required for professionnel"})
		}
	}
	if c.Siret != "" && !siretFmt.MatchString(nonDigits.ReplaceAllString(c.Siret, "")) {
		errs = append(errs, ValidationError{"siret", "must have 14 digits"})
	}
	return errs
}

func validateAddress(a entity.SiteAddress) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(a.Address) == "" {
		errs = append(errs, ValidationError{"address", "is required"})
	}
	if a.PostalCode == "" {
		errs = append(errs, ValidationError{"postal_code", "is required"})
	} else if !postalCodeFmt.MatchString(a.PostalCode) {
		errs = append(errs, ValidationError{"postal_code", "must have 5 digits"})
	}
	if strings.TrimSpace(a.City) == "" {
		errs = append(errs, ValidationError{"city", "is required"})
	}
	return errs
}

func validateTechnical(t entity.Technical) []ValidationError {
	var errs []ValidationError

	if t.RequestType == "" {
		errs = append(errs, ValidationError{"request_type", "is required"})
	} else if !entity.IsValidRequestType(t.RequestType) {
		errs = append(errs, ValidationError{"request_type", "is unknown"})
	}

	switch t.PhaseType {
	case "":
		errs = append(errs, ValidationError{"phase_type", "is required"})
	case entity.PhaseMono, entity.PhaseTri:
	default:
		errs = append(errs, ValidationError{"phase_type", "must be monophase or triphase"})
	}

	if t.PowerKVA == 0 {
		errs = append(errs, ValidationError{"power_kva", "is required"})
	} else if t.PowerKVA < entity.MinPowerKVA || t.PowerKVA > entity.MaxPowerKVA {
		errs = append(errs, ValidationError{"power_kva", fmt.Sprintf("must be between %g and %g", entity.MinPowerKVA, entity.MaxPowerKVA)})
	} else if t.PhaseType == entity.PhaseMono && t.PowerKVA > entity.MonoMaxKVA {
		errs = append(errs, ValidationError{"power_kva", fmt.Sprintf("monophase is limited to %g kVA", entity.MonoMaxKVA)})
	}

	if strings.TrimSpace(t.BuildingType) == "" {
		errs = append(errs, ValidationError{"building_type", "is required"})
	}
	if t.DesiredDate != "" {
		if _, err := time.Parse("2006-01-02", t.DesiredDate); err != nil {
			errs = append(errs, ValidationError{"desired_date", "must be a date (YYYY-MM-DD)"})
		}
	}
	return errs
}

// isUUID aceita só a forma canônica com hífens, a mesma que o Postgres devolve.
func isUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Aceita 0612345678, 06 12 34 56 78 e +33612345678.
func isValidFrenchPhone(phone string) bool {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	if strings.HasPrefix(strings.TrimSpace(phone), "+33") {
		return len(cleaned) == 11
	}
	return len(cleaned) == 10 && cleaned[0] == '0'
}
