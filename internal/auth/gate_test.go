package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trendingvenues/termdict/internal/auth"
)

func TestGateStartsChecking(t *testing.T) {
	svc := newService(&fakeProvider{})
	g := auth.NewGate(svc, nil)
	defer g.Close()

	require.Equal(t, auth.GateChecking, g.State())
	require.False(t, g.Authenticated())
	require.Nil(t, g.Identity())
}

func TestGateFollowsSessionLifecycle(t *testing.T) {
	svc := newService(&fakeProvider{identity: auth.Identity{ID: "u1", Username: "jane"}})

	var transitions []auth.GateState
	g := auth.NewGate(svc, func(state auth.GateState, _ *auth.Identity) {
		transitions = append(transitions, state)
	})
	defer g.Close()

	// a resume resolving to nothing settles the gate as unauthenticated
	svc.Resume(context.Background(), "")
	require.Equal(t, auth.GateUnauthenticated, g.State())

	_, err := svc.SignIn(context.Background(), "jane@trendingvenues.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, auth.GateAuthenticated, g.State())
	require.Equal(t, "jane", g.Identity().Username)

	require.NoError(t, svc.SignOut(context.Background()))
	require.Equal(t, auth.GateUnauthenticated, g.State())
	require.Nil(t, g.Identity())

	require.Equal(t, []auth.GateState{
		auth.GateUnauthenticated,
		auth.GateAuthenticated,
		auth.GateUnauthenticated,
	}, transitions)
}

func TestClosedGateStopsFollowing(t *testing.T) {
	svc := newService(&fakeProvider{identity: auth.Identity{ID: "u1"}})
	g := auth.NewGate(svc, nil)
	g.Close()

	_, err := svc.SignIn(context.Background(), "jane@trendingvenues.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, auth.GateChecking, g.State())
}
