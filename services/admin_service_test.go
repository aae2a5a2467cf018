package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchPortalAPI/internal/metadata"
	"researchPortalAPI/internal/onboarding"
	"researchPortalAPI/internal/types/subscription"
	"researchPortalAPI/internal/user"
)

func rosterVendor(t *testing.T) *AdminService {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/resources/users/v2", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"items":[
			{"id":"u1","name":"First","metadata":"{\"company\":\"Acme\"}"},
			{"id":"u2","name":"Second"},
			{"id":"u3","name":"Third"},
			{"id":"u4","name":"Fourth"}
		]}`))
	})
	mux.HandleFunc("/entitlements/resources/plans/v1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"p1","name":"Gold"}]}`))
	})
	mux.HandleFunc("/entitlements/resources/entitlements/v2", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("userId") {
		case "u1":
			// Slowest answer first, so completion order differs from list order.
			time.Sleep(50 * time.Millisecond)
			w.Write([]byte(`{"items":[{"id":"e1","planId":"p1","expirationDate":"2030-01-01T12:00:00.000Z"}]}`))
		case "u2":
			time.Sleep(10 * time.Millisecond)
			w.Write([]byte(`{"entitlements":[
				{"id":"e2","planId":"p9"},
				{"id":"e3","planId":"p7","plan":{"name":"Silver"}},
				{"id":"e4"}
			]}`))
		case "u4":
			w.Write([]byte(`{"items":[]}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	return NewAdminService(newVendor(t, mux), "tenant-default")
}

func TestLoadRoster(t *testing.T) {
	svc := rosterVendor(t)

	roster, err := svc.LoadRoster(context.Background(), testSession(nil))

	require.NoError(t, err)
	require.Len(t, roster, 4)
	assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, []string{roster[0].ID, roster[1].ID, roster[2].ID, roster[3].ID})

	assert.Equal(t, "Acme", roster[0].Metadata.Company)
	require.Len(t, roster[0].Subscriptions, 1)
	assert.Equal(t, "Gold", roster[0].Subscriptions[0].PlanName)
	assert.Equal(t, "2030-01-01T12:00:00.000Z", roster[0].Subscriptions[0].ExpirationDate)

	require.Len(t, roster[1].Subscriptions, 3)
	assert.Equal(t, UnknownPlan, roster[1].Subscriptions[0].PlanName)
	assert.Equal(t, "Silver", roster[1].Subscriptions[1].PlanName)
	assert.Equal(t, UnknownPlan, roster[1].Subscriptions[2].PlanName)

	// Failed entitlement fetch.
	assert.NotNil(t, roster[2].Subscriptions)
	assert.Empty(t, roster[2].Subscriptions)

	// Successful fetch of no entitlements.
	assert.NotNil(t, roster[3].Subscriptions)
	assert.Empty(t, roster[3].Subscriptions)
}

func TestLoadRosterUnrecognizedEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/resources/users/v2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[{"id":"u1"}]}`))
	})
	svc := NewAdminService(newVendor(t, mux), "tenant-default")

	_, err := svc.LoadRoster(context.Background(), testSession(nil))

	assert.Error(t, err)
}

func TestPlanName(t *testing.T) {
	names := map[string]string{"p1": "Gold"}
	tests := []struct {
		name string
		ent  string
		want string
	}{
		{name: "mapped", ent: `{"planId":"p1","planName":"Ignored"}`, want: "Gold"},
		{name: "embedded planName", ent: `{"planId":"p2","planName":"Bronze"}`, want: "Bronze"},
		{name: "embedded plan object", ent: `{"planId":"p3","plan":{"name":"Silver"}}`, want: "Silver"},
		{name: "unmapped", ent: `{"planId":"p9"}`, want: UnknownPlan},
		{name: "no plan id", ent: `{"planName":"Gold"}`, want: UnknownPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := subscriptions(mustEntitlements(t, "["+tt.ent+"]"), names)
			require.Len(t, subs, 1)
			assert.Equal(t, tt.want, subs[0].PlanName)
		})
	}
}

func TestAdminUpdateUserMergesStoredMetadata(t *testing.T) {
	var saved map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/resources/users/v1/u1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tenant-9", r.Header.Get("frontegg-tenant-id"))
		w.Write([]byte(`{"id":"u1","metadata":"{\"onboardingComplete\":true,\"referral\":\"ad\"}"}`))
	})
	mux.HandleFunc("/identity/resources/users/v1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", r.Header.Get("frontegg-user-id"))
		saved = decodeBody(t, r)
		w.Write([]byte(`{"id":"u1","name":"Grace","email":"grace@example.com"}`))
	})
	svc := NewAdminService(newVendor(t, mux), "tenant-default")

	p, err := svc.UpdateUser(context.Background(), "u1", user.AdminUpdateUserRequest{
		TenantID: "tenant-9",
		Details:  user.Details{Name: "Grace", Company: "Navy"},
	})

	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", p.Email)
	assert.Equal(t, "Navy", p.Metadata.Company)

	md := metadata.Decode(saved["metadata"])
	assert.True(t, md.OnboardingComplete)
	assert.Equal(t, "ad", md.Extra["referral"])
	assert.Equal(t, "Navy", md.Company)
}

func TestAdminUpdateUserRejectsBadPhone(t *testing.T) {
	svc := NewAdminService(newVendor(t, http.NewServeMux()), "tenant-default")

	_, err := svc.UpdateUser(context.Background(), "u1", user.AdminUpdateUserRequest{Details: user.Details{Phone: "call me"}})

	var verrs onboarding.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, onboarding.PhoneMessage, verrs["phone"])
}

func TestAssignSubscription(t *testing.T) {
	var saved map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/entitlements/resources/entitlements/v2", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		saved = decodeBody(t, r)
		w.WriteHeader(http.StatusCreated)
	})
	svc := NewAdminService(newVendor(t, mux), "tenant-default")
	ctx := context.Background()

	err := svc.AssignSubscription(ctx, "u1", subscription.AssignRequest{PlanID: "p1", ExpirationDate: "2030-06-01"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"planId":         "p1",
		"tenantId":       "tenant-default",
		"userId":         "u1",
		"expirationDate": "2030-06-01T12:00:00.000Z",
	}, saved)

	var inputErr *InputError
	assert.ErrorAs(t, svc.AssignSubscription(ctx, "u1", subscription.AssignRequest{ExpirationDate: "2030-06-01"}), &inputErr)
	assert.ErrorAs(t, svc.AssignSubscription(ctx, "u1", subscription.AssignRequest{PlanID: "p1", ExpirationDate: "06/01/2030"}), &inputErr)
}

func TestExtendAndRemoveSubscription(t *testing.T) {
	var methods []string
	mux := http.NewServeMux()
	mux.HandleFunc("/entitlements/resources/entitlements/v2/e1", func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodPatch {
			assert.Equal(t, "2031-01-15T12:00:00.000Z", decodeBody(t, r)["expirationDate"])
		}
		w.WriteHeader(http.StatusNoContent)
	})
	svc := NewAdminService(newVendor(t, mux), "tenant-default")
	ctx := context.Background()

	require.NoError(t, svc.ExtendSubscription(ctx, "e1", subscription.ExtendRequest{ExpirationDate: "2031-01-15"}))
	require.NoError(t, svc.RemoveSubscription(ctx, "e1"))
	assert.Equal(t, []string{http.MethodPatch, http.MethodDelete}, methods)
}
