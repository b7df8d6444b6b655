package entity

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePricing(t *testing.T) {
	tests := []struct {
		name      string
		technical Technical
		wantHT    int64
		wantTTC   int64
	}{
		{
			name:      "definitif monophase",
			technical: Technical{RequestType: RequestDefinitive, PhaseType: PhaseMono, PowerKVA: 9},
			wantHT:    89000,
			wantTTC:   106800,
		},
		{
			name:      "definitif triphase",
			technical: Technical{RequestType: RequestDefinitive, PhaseType: PhaseTri, PowerKVA: 36},
			wantHT:    104000,
			wantTTC:   124800,
		},
		{
			name:      "viabilisation tarif jaune",
			technical: Technical{RequestType: RequestSiteServicing, PhaseType: PhaseTri, PowerKVA: 60},
			wantHT:    174000,
			wantTTC:   208800,
		},
		{
			name:      "unknown type",
			technical: Technical{RequestType: "nope", PhaseType: PhaseMono, PowerKVA: 6},
			wantHT:    0,
			wantTTC:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputePricing(tt.technical)
			assert.Equal(t, tt.wantHT, p.PriceHTCents)
			assert.Equal(t, tt.wantTTC, p.PriceTTCCents)
			assert.Equal(t, p.PriceTTCCents-p.PriceHTCents, p.TVACents)
		})
	}
}

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "1 068,00 €", FormatEuros(106800))
	assert.Equal(t, "490,50 €", FormatEuros(49050))
	assert.Equal(t, "0,05 €", FormatEuros(5))
	assert.Equal(t, "1 234 567,89 €", FormatEuros(123456789))
}

func TestNewReferenceNumber(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	ref := NewReferenceNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^RAC-20261015-[0-9A-F]{6}$`), ref)
	assert.NotEqual(t, ref, NewReferenceNumber(now))
}

func TestDefaultPermissions(t *testing.T) {
	assert.ElementsMatch(t, AllPermissions, DefaultPermissions(RoleAdmin))

	manager := DefaultPermissions(RoleManager)
	assert.NotContains(t, manager, PermUsersManage)
	assert.Contains(t, manager, PermAutomationManage)

	agent := DefaultPermissions(RoleAgent)
	assert.Contains(t, agent, PermEmailsSend)
	assert.NotContains(t, agent, PermRequestsDelete)
	assert.NotContains(t, agent, PermRequestsExport)
	assert.NotContains(t, agent, PermTemplatesManage)

	assert.Empty(t, DefaultPermissions("intern"))
}

func TestDefaultPermissionsReturnsCopy(t *testing.T) {
	perms := DefaultPermissions(RoleAgent)
	perms[0] = "hacked"

	assert.NotEqual(t, "hacked", DefaultPermissions(RoleAgent)[0])
}

func TestUserCan(t *testing.T) {
	u := NewUser("agent@example.fr", "Agent", RoleAgent)
	assert.True(t, u.Can(PermRequestsView))
	assert.False(t, u.Can(PermUsersManage))
}

func TestLeadSteps(t *testing.T) {
	lead := NewLead()
	require.NotEmpty(t, lead.Token)
	assert.Equal(t, 0, lead.CurrentStep())
	assert.False(t, lead.ReadyToFinalize())
	assert.Equal(t, StepContact, lead.FirstIncompleteStep())

	lead.MarkStepCompleted(StepAddress)
	lead.MarkStepCompleted(StepContact)
	lead.MarkStepCompleted(StepContact)

	assert.Equal(t, []int{1, 2}, lead.CompletedSteps)
	assert.Equal(t, StepAddress, lead.CurrentStep())
	assert.Equal(t, StepTechnical, lead.FirstIncompleteStep())

	lead.MarkStepCompleted(StepTechnical)
	assert.True(t, lead.ReadyToFinalize())
	assert.Equal(t, 0, lead.FirstIncompleteStep())
}

func TestEmailTemplateRender(t *testing.T) {
	tpl := NewEmailTemplate(
		"confirmation",
		"Votre demande {{reference_number}}",
		"Bonjour {{ first_name }},\nMontant : {{price_ttc}}\n{{unknown}} {{first_name}}",
		"transactional",
	)

	assert.Equal(t, []string{"reference_number", "first_name", "price_ttc", "unknown"}, tpl.Variables)

	subject, body := tpl.Render(map[string]string{
		"reference_number": "RAC-20261015-ABCDEF",
		"first_name":       "Camille",
		"price_ttc":        "1 068,00 €",
	})

	assert.Equal(t, "Votre demande RAC-20261015-ABCDEF", subject)
	assert.Equal(t, "Bonjour Camille,\nMontant : 1 068,00 €\n{{unknown}} Camille", body)
}

func TestServiceRequestTemplateVars(t *testing.T) {
	sr := NewServiceRequest(
		Contact{FirstName: "Camille", LastName: "Martin", Email: "camille@example.fr"},
		SiteAddress{Address: "12 rue des Lilas", PostalCode: "69003", City: "Lyon"},
		Technical{RequestType: RequestDefinitive, PhaseType: PhaseMono, PowerKVA: 9},
		SourceForm,
	)

	vars := sr.TemplateVars()
	assert.Equal(t, "Camille Martin", vars["full_name"])
	assert.Equal(t, sr.ReferenceNumber, vars["reference_number"])
	assert.Equal(t, "1 068,00 €", vars["price_ttc"])
	assert.Equal(t, "Raccordement définitif", vars["request_type"])
	assert.Equal(t, StatusPending, sr.Status)
	assert.Equal(t, PaymentUnpaid, sr.PaymentStatus)
}
