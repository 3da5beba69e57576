package seed_test

import (
	"context"
	"testing"

	"dog-walk-service/internal/domain/dogs"
	"dog-walk-service/internal/domain/users"
	"dog-walk-service/internal/router"
	"dog-walk-service/internal/seed"

	"github.com/stretchr/testify/require"
)

func TestLoad_DemoData(t *testing.T) {
	ctx := context.Background()
	svcs := router.NewServices(router.Options{})
	demo := seed.Services{Users: svcs.Users, Dogs: svcs.Dogs, Walks: svcs.Walks}

	require.NoError(t, seed.Load(ctx, demo, nil))

	summary, err := svcs.Walks.WalkerSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)

	require.Equal(t, "bobwalker", summary[0].WalkerUsername)
	require.Equal(t, 2, summary[0].CompletedWalks)
	require.Equal(t, 2, summary[0].TotalRatings)
	require.Equal(t, 4.5, *summary[0].AverageRating)

	require.Equal(t, "evewalker", summary[1].WalkerUsername)
	require.Equal(t, 0, summary[1].CompletedWalks)
	require.Nil(t, summary[1].AverageRating)

	open, err := svcs.Walks.ListOpenRequests(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)

	listing, err := svcs.Dogs.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, listing, 5)

	// Segunda carga: no duplica nada
	require.NoError(t, seed.Load(ctx, demo, nil))
	again, err := svcs.Walks.WalkerSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, summary, again)
}

func TestLoad_UsersCanLogIn(t *testing.T) {
	ctx := context.Background()
	svcs := router.NewServices(router.Options{})
	require.NoError(t, seed.Load(ctx, seed.Services{Users: svcs.Users, Dogs: svcs.Dogs, Walks: svcs.Walks}, nil))

	u, err := svcs.Users.Authenticate(ctx, "bobwalker", seed.DemoPassword)
	require.NoError(t, err)
	require.Equal(t, "walker", string(u.Role))
}

func TestLoad_ResumesPartialData(t *testing.T) {
	ctx := context.Background()
	svcs := router.NewServices(router.Options{})
	demo := seed.Services{Users: svcs.Users, Dogs: svcs.Dogs, Walks: svcs.Walks}

	// Una carga anterior que cortó después del primer usuario y su primer perro
	alice, err := svcs.Users.Register(ctx, users.RegisterInput{
		Username: "alice123", Email: "alice123@example.com", Password: seed.DemoPassword, Role: "owner",
	})
	require.NoError(t, err)
	_, err = svcs.Dogs.Create(ctx, alice.Claims(), dogs.CreateInput{Name: "Max", Size: "medium"})
	require.NoError(t, err)

	require.NoError(t, seed.Load(ctx, demo, nil))

	listing, err := svcs.Dogs.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, listing, 5)

	summary, err := svcs.Walks.WalkerSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	require.Equal(t, 2, summary[0].CompletedWalks)
	require.Equal(t, 4.5, *summary[0].AverageRating)
}

func TestLoad_ForeignUserWithSameNameFails(t *testing.T) {
	ctx := context.Background()
	svcs := router.NewServices(router.Options{})

	_, err := svcs.Users.Register(ctx, users.RegisterInput{
		Username: "alice123", Email: "someone@example.com", Password: "another-password", Role: "owner",
	})
	require.NoError(t, err)

	err = seed.Load(ctx, seed.Services{Users: svcs.Users, Dogs: svcs.Dogs, Walks: svcs.Walks}, nil)
	require.Error(t, err)
}
