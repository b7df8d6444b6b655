package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

func newServiceRequestUC(t *testing.T) (*ServiceRequestUseCase, *MockServiceRequestRepository, *MockLeadRepository, *MockPaymentProvider, *MockExporter) {
	uc, requests, leads, payments, exporter, _ := newServiceRequestUCWithUsers(t)
	return uc, requests, leads, payments, exporter
}

func newServiceRequestUCWithUsers(t *testing.T) (*ServiceRequestUseCase, *MockServiceRequestRepository, *MockLeadRepository, *MockPaymentProvider, *MockExporter, *MockUserRepository) {
	logger := zaptest.NewLogger(t)
	requests := new(MockServiceRequestRepository)
	leads := new(MockLeadRepository)
	users := new(MockUserRepository)
	payments := new(MockPaymentProvider)
	exporter := new(MockExporter)
	automations := new(MockAutomationChecker)
	automations.On("Enabled", mock.Anything, mock.Anything).Return(false)

	checkout := &Checkout{Requests: requests, Payments: payments, Automations: automations, Logger: logger}
	return NewServiceRequestUseCase(requests, leads, users, checkout, exporter, logger), requests, leads, payments, exporter, users
}

func validSubmission() SubmitServiceRequestInput {
	return SubmitServiceRequestInput{
		Contact: Fields{
			"client_type":  "professionnel",
			"first_name":   "Jean",
			"last_name":    "Dupont",
			"email":        "jean@dupont-sarl.fr",
			"phone":        "+33612345678",
			"company_name": "Dupont SARL",
		},
		Address:         Fields{"address": "3 chemin du Moulin", "postal_code": "33000", "city": "Bordeaux"},
		Technical:       Fields{"request_type": entity.RequestSiteServicing, "power_kva": 60, "phase_type": entity.PhaseTri, "building_type": "terrain"},
		ConsentAccepted: true,
	}
}

func TestSubmitServiceRequest(t *testing.T) {
	uc, requests, _, payments, _ := newServiceRequestUC(t)
	requests.On("Create", mock.Anything, mock.MatchedBy(func(sr *entity.ServiceRequest) bool {
		return sr.Source == entity.SourceDirect && sr.LeadID == ""
	})).Return(nil)
	payments.On("CreatePaymentLink", mock.Anything, mock.Anything).
		Return(&entity.PaymentLink{URL: "https://paiement.example.fr/pay?reference=X"}, nil)
	requests.On("UpdatePayment", mock.Anything, mock.Anything, "", "https://paiement.example.fr/pay?reference=X").Return(nil)

	out, err := uc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Equal(t, int64(208800), out.Pricing.PriceTTCCents)
	assert.Equal(t, "https://paiement.example.fr/pay?reference=X", out.PaymentURL)
	requests.AssertExpectations(t)
}

func TestSubmitServiceRequestValidation(t *testing.T) {
	uc, requests, _, _, _ := newServiceRequestUC(t)

	input := validSubmission()
	input.Address["postal_code"] = "3300"
	input.Technical["request_type"] = "raccordement_lunaire"
	input.ConsentAccepted = false

	_, err := uc.Submit(context.Background(), input)
	de := requireDomainCode(t, err, CodeValidation)
	assert.True(t, hasField(de.Fields, "address.postal_code"))
	assert.True(t, hasField(de.Fields, "technical.request_type"))
	requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListNormalizesPagination(t *testing.T) {
	uc, requests, _, _, _ := newServiceRequestUC(t)
	expectedPage := entity.Page{Page: 1, Size: 100, Sort: "created_at", Direction: -1}
	requests.On("List", mock.Anything, entity.ServiceRequestFilter{Status: entity.StatusPending}, expectedPage).
		Return([]*entity.ServiceRequest{}, 42, nil)

	out, err := uc.List(context.Background(), entity.ServiceRequestFilter{Status: entity.StatusPending}, entity.Page{Page: 0, Size: 1000, Sort: "DROP TABLE"})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Size: 100, Page: 1, Count: 42, Sort: "created_at", Direction: -1}, out.Pagination)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	uc, _, _, _, _ := newServiceRequestUC(t)
	_, err := uc.List(context.Background(), entity.ServiceRequestFilter{Status: "archived"}, entity.Page{})
	requireDomainCode(t, err, CodeValidation)
}

func TestUpdateServiceRequest(t *testing.T) {
	uc, requests, _, _, _ := newServiceRequestUC(t)
	sr := entity.NewServiceRequest(
		entity.Contact{ClientType: "particulier", FirstName: "A", LastName: "B", Email: "a@b.fr", Phone: "0612345678"},
		entity.SiteAddress{Address: "1 rue", PostalCode: "75001", City: "Paris"},
		entity.Technical{RequestType: entity.RequestDefinitive, PowerKVA: 9, PhaseType: entity.PhaseMono, BuildingType: "maison"},
		entity.SourceForm,
	)
	requests.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)
	requests.On("Update", mock.Anything, sr).Return(nil)

	status := entity.StatusInProgress
	paid := entity.PaymentPaid
	out, err := uc.Update(context.Background(), sr.ID, UpdateServiceRequestInput{
		Status:        &status,
		PaymentStatus: &paid,
		Technical:     Fields{"phase_type": entity.PhaseTri, "power_kva": 36},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusInProgress, out.Status)
	assert.NotNil(t, out.PaidAt)
	assert.Equal(t, int64(104000), out.Pricing.PriceHTCents)
}

func TestUpdateServiceRequestRejectsBadStatus(t *testing.T) {
	uc, requests, _, _, _ := newServiceRequestUC(t)
	sr := &entity.ServiceRequest{ID: "5d0c8f4e-2b1a-4e3f-9c7d-6a5b4c3d2e1f", Status: entity.StatusPending}
	requests.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)

	bad := "archived"
	_, err := uc.Update(context.Background(), sr.ID, UpdateServiceRequestInput{Status: &bad})
	de := requireDomainCode(t, err, CodeValidation)
	assert.True(t, hasField(de.Fields, "status"))
	requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestGetAndDeleteNotFound(t *testing.T) {
	uc, requests, _, _, _ := newServiceRequestUC(t)
	requests.On("FindByID", mock.Anything, missingID).Return(nil, entity.ErrServiceRequestNotFound)
	requests.On("Delete", mock.Anything, missingID).Return(entity.ErrServiceRequestNotFound)

	_, err := uc.Get(context.Background(), missingID)
	requireDomainCode(t, err, CodeNotFound)

	err = uc.Delete(context.Background(), missingID)
	requireDomainCode(t, err, CodeNotFound)
}

func TestMalformedServiceRequestIDIsNotFound(t *testing.T) {
	uc, requests, _, _, _ := newServiceRequestUC(t)

	for _, id := range []string{"abc", "", "RAC-20261015-ABC123", "urn:uuid:5d0c8f4e-2b1a-4e3f-9c7d-6a5b4c3d2e1f"} {
		_, err := uc.Get(context.Background(), id)
		requireDomainCode(t, err, CodeNotFound)

		_, err = uc.Update(context.Background(), id, UpdateServiceRequestInput{})
		requireDomainCode(t, err, CodeNotFound)

		err = uc.Delete(context.Background(), id)
		requireDomainCode(t, err, CodeNotFound)
	}
	requests.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	requests.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUpdateServiceRequestAssignee(t *testing.T) {
	newRequest := func() *entity.ServiceRequest {
		return &entity.ServiceRequest{ID: "5d0c8f4e-2b1a-4e3f-9c7d-6a5b4c3d2e1f", Status: entity.StatusPending, AssignedTo: "7a6b5c4d-3e2f-4a1b-8c9d-0e1f2a3b4c5d"}
	}
	agent := entity.NewUser("agent@raccordement.fr", "Agent", entity.RoleAgent)

	t.Run("malformed id is a validation error", func(t *testing.T) {
		uc, requests, _, _, _, users := newServiceRequestUCWithUsers(t)
		sr := newRequest()
		requests.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)

		bob := "bob"
		_, err := uc.Update(context.Background(), sr.ID, UpdateServiceRequestInput{AssignedTo: &bob})
		de := requireDomainCode(t, err, CodeValidation)
		assert.True(t, hasField(de.Fields, "assigned_to"))
		users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown user is a validation error", func(t *testing.T) {
		uc, requests, _, _, _, users := newServiceRequestUCWithUsers(t)
		sr := newRequest()
		requests.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)
		users.On("FindByID", mock.Anything, missingID).Return(nil, entity.ErrUserNotFound)

		id := missingID
		_, err := uc.Update(context.Background(), sr.ID, UpdateServiceRequestInput{AssignedTo: &id})
		de := requireDomainCode(t, err, CodeValidation)
		assert.True(t, hasField(de.Fields, "assigned_to"))
		requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("user removed before the write", func(t *testing.T) {
		uc, requests, _, _, _, users := newServiceRequestUCWithUsers(t)
		sr := newRequest()
		requests.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)
		users.On("FindByID", mock.Anything, agent.ID).Return(agent, nil)
		requests.On("Update", mock.Anything, sr).Return(fmt.Errorf("%w: assigned_to", entity.ErrUnknownReference))

		id := agent.ID
		_, err := uc.Update(context.Background(), sr.ID, UpdateServiceRequestInput{AssignedTo: &id})
		de := requireDomainCode(t, err, CodeValidation)
		assert.True(t, hasField(de.Fields, "assigned_to"))
	})

	t.Run("existing user is assigned", func(t *testing.T) {
		uc, requests, _, _, _, users := newServiceRequestUCWithUsers(t)
		sr := newRequest()
		requests.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)
		users.On("FindByID", mock.Anything, agent.ID).Return(agent, nil)
		requests.On("Update", mock.Anything, sr).Return(nil)

		id := " " + agent.ID + " "
		out, err := uc.Update(context.Background(), sr.ID, UpdateServiceRequestInput{AssignedTo: &id})
		require.NoError(t, err)
		assert.Equal(t, agent.ID, out.AssignedTo)
	})

	t.Run("empty string clears the assignee", func(t *testing.T) {
		uc, requests, _, _, _, users := newServiceRequestUCWithUsers(t)
		sr := newRequest()
		requests.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)
		requests.On("Update", mock.Anything, sr).Return(nil)

		empty := ""
		out, err := uc.Update(context.Background(), sr.ID, UpdateServiceRequestInput{AssignedTo: &empty})
		require.NoError(t, err)
		assert.Empty(t, out.AssignedTo)
		users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("user lookup failure is technical", func(t *testing.T) {
		uc, requests, _, _, _, users := newServiceRequestUCWithUsers(t)
		sr := newRequest()
		requests.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)
		users.On("FindByID", mock.Anything, agent.ID).Return(nil, errors.New("connection reset"))

		id := agent.ID
		_, err := uc.Update(context.Background(), sr.ID, UpdateServiceRequestInput{AssignedTo: &id})
		var te *TechnicalError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, CodeDatabase, te.Code)
	})
}

func TestTrack(t *testing.T) {
	uc, requests, _, _, _ := newServiceRequestUC(t)
	sr := &entity.ServiceRequest{
		ReferenceNumber: "RAC-20261015-ABC123",
		Status:          entity.StatusPending,
		PaymentStatus:   entity.PaymentUnpaid,
		PaymentURL:      "https://pay",
		Technical:       entity.Technical{RequestType: entity.RequestMeterMove},
	}
	requests.On("FindByReference", mock.Anything, "RAC-20261015-ABC123").Return(sr, nil)

	out, err := uc.Track(context.Background(), " rac-20261015-abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "Déplacement de compteur", out.RequestType)
	assert.Equal(t, "https://pay", out.PaymentURL)
}

func TestExport(t *testing.T) {
	uc, requests, _, _, exporter := newServiceRequestUC(t)
	items := []*entity.ServiceRequest{{ID: "1"}, {ID: "2"}}
	requests.On("List", mock.Anything, entity.ServiceRequestFilter{}, mock.AnythingOfType("entity.Page")).Return(items, 2, nil)
	exporter.On("WriteServiceRequests", mock.Anything, items).Return(nil)

	var buf bytes.Buffer
	require.NoError(t, uc.Export(context.Background(), entity.ServiceRequestFilter{}, &buf))
	exporter.AssertExpectations(t)
}

func TestExportFailure(t *testing.T) {
	uc, requests, _, _, exporter := newServiceRequestUC(t)
	requests.On("List", mock.Anything, mock.Anything, mock.Anything).Return([]*entity.ServiceRequest{}, 0, nil)
	exporter.On("WriteServiceRequests", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	err := uc.Export(context.Background(), entity.ServiceRequestFilter{}, &bytes.Buffer{})
	assert.True(t, IsTechnicalError(err))
}

func TestStatsConversion(t *testing.T) {
	uc, requests, leads, _, _ := newServiceRequestUC(t)
	requests.On("Stats", mock.Anything, mock.AnythingOfType("time.Time")).Return(&entity.Stats{Total: 3}, nil)
	leads.On("CountByStatus", mock.Anything).Return(map[string]int{
		entity.LeadStatusDraft:     2,
		entity.LeadStatusFinalized: 1,
	}, nil)

	stats, err := uc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.OpenDrafts)
	assert.Equal(t, 1, stats.FinalizedDrafts)
	assert.InDelta(t, 33.33, stats.ConversionPercent, 0.001)
}

func TestMarkPaid(t *testing.T) {
	uc, requests, _, _, _ := newServiceRequestUC(t)
	requests.On("MarkPaid", mock.Anything, "RAC-1", mock.AnythingOfType("time.Time")).Return(nil)
	requests.On("MarkPaid", mock.Anything, "RAC-404", mock.AnythingOfType("time.Time")).Return(entity.ErrServiceRequestNotFound)

	require.NoError(t, uc.MarkPaid(context.Background(), "RAC-1"))
	requireDomainCode(t, uc.MarkPaid(context.Background(), "RAC-404"), CodeNotFound)
}
