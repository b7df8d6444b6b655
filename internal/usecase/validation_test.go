package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

func TestValidateStepFields(t *testing.T) {
	tests := []struct {
		name   string
		step   int
		data   map[string]interface{}
		fields []string
	}{
		{"partial contact is fine", entity.StepContact, map[string]interface{}{"first_name": "Jean"}, nil},
		{"blank enum allowed", entity.StepContact, map[string]interface{}{"client_type": ""}, nil},
		{"unknown field", entity.StepContact, map[string]interface{}{"is_admin": true}, []string{"is_admin"}},
		{"bad enum", entity.StepContact, map[string]interface{}{"civility": "Dr"}, []string{"civility"}},
		{"postal code pattern", entity.StepAddress, map[string]interface{}{"postal_code": "ABCDE"}, []string{"postal_code"}},
		{"power above max", entity.StepTechnical, map[string]interface{}{"power_kva": 500}, []string{"power_kva"}},
		{"power as string", entity.StepTechnical, map[string]interface{}{"power_kva": "12"}, []string{"power_kva"}},
		{"unknown step", 7, map[string]interface{}{}, []string{"step"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStepFields(tt.step, tt.data)
			if tt.fields == nil {
				assert.Empty(t, errs)
				return
			}
			for _, f := range tt.fields {
				assert.True(t, hasField(errs, f), "expected error on %s, got %+v", f, errs)
			}
		})
	}
}

func TestRequiredStepErrors(t *testing.T) {
	lead := entity.NewLead()
	lead.Contact = entity.Contact{
		ClientType: "professionnel",
		FirstName:  "Jean",
		LastName:   "Dupont",
		Email:      "jean@dupont.fr",
		Phone:      "06 12 34 56 78",
		Siret:      "123",
	}
	lead.Technical = entity.Technical{
		RequestType:  entity.RequestDefinitive,
		PhaseType:    entity.PhaseMono,
		PowerKVA:     18,
		BuildingType: "maison",
		DesiredDate:  "15/10/2026",
	}

	contactErrs := RequiredStepErrors(entity.StepContact, lead)
	assert.True(t, hasField(contactErrs, "company_name"))
	assert.True(t, hasField(contactErrs, "siret"))
	assert.False(t, hasField(contactErrs, "phone"))

	addressErrs := RequiredStepErrors(entity.StepAddress, lead)
	assert.Len(t, addressErrs, 3)

	techErrs := RequiredStepErrors(entity.StepTechnical, lead)
	assert.True(t, hasField(techErrs, "power_kva"))
	assert.True(t, hasField(techErrs, "desired_date"))
}

func TestIsValidFrenchPhone(t *testing.T) {
	for phone, want := range map[string]bool{
		"0612345678":     true,
		"06 12 34 56 78": true,
		"+33612345678":   true,
		"+33 6 12 34 56": false,
		"612345678":      false,
		"1612345678":     false,
	} {
		assert.Equal(t, want, isValidFrenchPhone(phone), phone)
	}
}

func TestMergeIntoKeepsUntouchedFields(t *testing.T) {
	c := entity.Contact{FirstName: "Jean", LastName: "Dupont"}
	require.NoError(t, mergeInto(&c, map[string]interface{}{"last_name": "Martin", "email": "j@m.fr"}))
	assert.Equal(t, entity.Contact{FirstName: "Jean", LastName: "Martin", Email: "j@m.fr"}, c)
}

func TestTransactionRollsBackInReverse(t *testing.T) {
	var order []string
	tx := NewTransaction(zaptest.NewLogger(t))
	tx.AddOperation("first", func(context.Context) error { order = append(order, "op1"); return nil })
	tx.AddCompensation(func(context.Context) error { order = append(order, "undo1"); return nil })
	tx.AddOperation("second", func(context.Context) error { order = append(order, "op2"); return nil })
	tx.AddCompensation(func(context.Context) error { order = append(order, "undo2"); return nil })
	tx.AddOperation("third", func(context.Context) error { return errors.New("boom") })

	err := tx.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"op1", "op2", "undo2", "undo1"}, order)
}
