package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

func TestStoreSelectorRoutesSentinels(t *testing.T) {
	svc := newTestServices(t)
	selector := svc.stores

	tests := []struct {
		name   string
		caller policy.Caller
		demo   bool
		scope  string
	}{
		{
			name:   "regular identity",
			caller: policy.Caller{ID: "user-1", Role: models.RoleStudent, Authenticated: true},
			scope:  repository.StoreKindDurable,
		},
		{
			name:   "sentinel with matching role",
			caller: policy.Caller{ID: testDemoIdentities.Student, Role: models.RoleStudent, SessionID: "abc", Authenticated: true},
			demo:   true,
			scope:  "demo:abc",
		},
		{
			name:   "sentinel without session falls back to its id",
			caller: policy.Caller{ID: testDemoIdentities.Admin, Role: models.RoleAdmin, Authenticated: true},
			demo:   true,
			scope:  "demo:" + testDemoIdentities.Admin,
		},
		{
			name:   "sentinel claiming another role",
			caller: policy.Caller{ID: testDemoIdentities.Student, Role: models.RoleAdmin, SessionID: "abc", Authenticated: true},
			scope:  repository.StoreKindDurable,
		},
		{
			name:   "unauthenticated sentinel",
			caller: policy.Caller{ID: testDemoIdentities.Instructor, Role: models.RoleInstructor},
			scope:  repository.StoreKindDurable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.demo, selector.IsDemo(tc.caller))
			require.Equal(t, tc.scope, selector.Scope(tc.caller))
			if tc.demo {
				require.Equal(t, repository.StoreKindDemo, selector.For(tc.caller).Kind())
			} else {
				require.Equal(t, repository.StoreKindDurable, selector.For(tc.caller).Kind())
			}
		})
	}
}

func TestStoreSelectorWithoutDemo(t *testing.T) {
	selector := NewStoreSelector(repository.NewGormStore(setupServiceTestDB(t)), nil)
	caller := policy.Caller{ID: testDemoIdentities.Admin, Role: models.RoleAdmin, Authenticated: true}

	require.False(t, selector.IsDemo(caller))
	require.Equal(t, repository.StoreKindDurable, selector.For(caller).Kind())
	require.Nil(t, selector.Demo())
}
