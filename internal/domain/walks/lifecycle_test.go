package walks_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"dog-walk-service/internal/adapters/storage/memory"
	"dog-walk-service/internal/domain/dogs"
	"dog-walk-service/internal/domain/users"
	"dog-walk-service/internal/domain/walks"
	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	users users.Repository
	dogs  *dogs.Service
	svc   *walks.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	dogsSvc := dogs.NewService(memory.NewDogRepo(db))
	return &fixture{
		users: memory.NewUserRepo(db),
		dogs:  dogsSvc,
		svc:   walks.NewService(memory.NewWalkStore(db), dogsSvc, nil),
	}
}

func (f *fixture) user(t *testing.T, username string, role auth.Role) auth.Claims {
	t.Helper()
	u := users.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.Claims()
}

func (f *fixture) openRequest(t *testing.T, owner auth.Claims, dogName string) walks.WalkRequest {
	t.Helper()
	ctx := context.Background()
	d, err := f.dogs.Create(ctx, owner, dogs.CreateInput{Name: dogName, Size: "medium"})
	require.NoError(t, err)

	req, err := f.svc.CreateWalkRequest(ctx, owner, walks.CreateRequestInput{
		DogID:           d.ID,
		RequestedTime:   time.Date(2025, 4, 20, 8, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Location:        "Parklands",
	})
	require.NoError(t, err)
	require.Equal(t, walks.RequestOpen, req.Status)
	return req
}

// completedWalk lleva una solicitud hasta completed con walker aceptado.
func (f *fixture) completedWalk(t *testing.T, owner, walker auth.Claims, dogName string) walks.WalkRequest {
	t.Helper()
	ctx := context.Background()
	req := f.openRequest(t, owner, dogName)
	app, err := f.svc.SubmitApplication(ctx, walker, req.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(ctx, owner, app.ID)
	require.NoError(t, err)
	done, err := f.svc.MarkCompleted(ctx, walker, req.ID)
	require.NoError(t, err)
	return done
}

func TestAcceptApplication_RejectsSiblingsAndSecondAcceptConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "carol123", auth.RoleOwner)
	bob := f.user(t, "bobwalker", auth.RoleWalker)
	eve := f.user(t, "evewalker", auth.RoleWalker)

	req := f.openRequest(t, owner, "Rocky")
	appBob, err := f.svc.SubmitApplication(ctx, bob, req.ID)
	require.NoError(t, err)
	appEve, err := f.svc.SubmitApplication(ctx, eve, req.ID)
	require.NoError(t, err)

	acc, err := f.svc.AcceptApplication(ctx, owner, appBob.ID)
	require.NoError(t, err)
	require.Equal(t, walks.RequestAccepted, acc.Request.Status)
	require.Equal(t, walks.ApplicationAccepted, acc.Application.Status)

	_, err = f.svc.AcceptApplication(ctx, owner, appEve.ID)
	require.ErrorIs(t, err, apperr.ErrStateConflict)

	apps, err := f.svc.ListApplications(ctx, owner, req.ID)
	require.NoError(t, err)
	statuses := map[string]walks.ApplicationStatus{}
	for _, a := range apps {
		statuses[a.ID] = a.Status
	}
	require.Equal(t, walks.ApplicationAccepted, statuses[appBob.ID])
	require.Equal(t, walks.ApplicationRejected, statuses[appEve.ID])

	got, err := f.svc.GetRequest(ctx, owner, req.ID)
	require.NoError(t, err)
	require.Equal(t, walks.RequestAccepted, got.Status)

	// Ya no acepta postulaciones nuevas
	dan := f.user(t, "danwalker", auth.RoleWalker)
	_, err = f.svc.SubmitApplication(ctx, dan, req.ID)
	require.ErrorIs(t, err, apperr.ErrStateConflict)
}

func TestRating_OnAcceptedRequestConflictsAndInsertsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	bob := f.user(t, "bobwalker", auth.RoleWalker)

	req := f.openRequest(t, owner, "Max")
	app, err := f.svc.SubmitApplication(ctx, bob, req.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(ctx, owner, app.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitRating(ctx, owner, req.ID, walks.RatingInput{Rating: 5})
	require.ErrorIs(t, err, apperr.ErrStateConflict)

	_, err = f.svc.GetRating(ctx, owner, req.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	summary, err := f.svc.WalkerSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	require.Equal(t, 0, summary[0].CompletedWalks)
	require.Nil(t, summary[0].AverageRating)
}

func TestMarkCompleted_Transitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	bob := f.user(t, "bobwalker", auth.RoleWalker)
	eve := f.user(t, "evewalker", auth.RoleWalker)

	req := f.openRequest(t, owner, "Max")

	// open -> completed no existe
	_, err := f.svc.MarkCompleted(ctx, owner, req.ID)
	require.ErrorIs(t, err, apperr.ErrStateConflict)

	app, err := f.svc.SubmitApplication(ctx, bob, req.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(ctx, owner, app.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkCompleted(ctx, eve, req.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	done, err := f.svc.MarkCompleted(ctx, owner, req.ID)
	require.NoError(t, err)
	require.Equal(t, walks.RequestCompleted, done.Status)

	_, err = f.svc.MarkCompleted(ctx, bob, req.ID)
	require.ErrorIs(t, err, apperr.ErrStateConflict)

	_, err = f.svc.CancelRequest(ctx, owner, req.ID)
	require.ErrorIs(t, err, apperr.ErrStateConflict)
}

func TestCancelRequest_RejectsLiveApplications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	bob := f.user(t, "bobwalker", auth.RoleWalker)
	eve := f.user(t, "evewalker", auth.RoleWalker)

	req := f.openRequest(t, owner, "Max")
	_, err := f.svc.SubmitApplication(ctx, bob, req.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitApplication(ctx, eve, req.ID)
	require.NoError(t, err)

	_, err = f.svc.CancelRequest(ctx, bob, req.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	cancelled, err := f.svc.CancelRequest(ctx, owner, req.ID)
	require.NoError(t, err)
	require.Equal(t, walks.RequestCancelled, cancelled.Status)

	apps, err := f.svc.ListApplications(ctx, owner, req.ID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	for _, a := range apps {
		require.Equal(t, walks.ApplicationRejected, a.Status)
	}

	open, err := f.svc.ListOpenRequests(ctx)
	require.NoError(t, err)
	require.Empty(t, open)

	_, err = f.svc.CancelRequest(ctx, owner, req.ID)
	require.ErrorIs(t, err, apperr.ErrStateConflict)
}

func TestSubmitApplication_Rules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	bob := f.user(t, "bobwalker", auth.RoleWalker)

	req := f.openRequest(t, owner, "Max")

	_, err := f.svc.SubmitApplication(ctx, owner, req.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.SubmitApplication(ctx, auth.Claims{}, req.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.svc.SubmitApplication(ctx, bob, "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	app, err := f.svc.SubmitApplication(ctx, bob, req.ID)
	require.NoError(t, err)
	require.Equal(t, walks.ApplicationPending, app.Status)

	_, err = f.svc.SubmitApplication(ctx, bob, req.ID)
	require.ErrorIs(t, err, apperr.ErrValidation)

	mine, err := f.svc.ListMyApplications(ctx, bob)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.svc.ListMyApplications(ctx, owner)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateWalkRequest_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	other := f.user(t, "davidowner", auth.RoleOwner)

	d, err := f.dogs.Create(ctx, owner, dogs.CreateInput{Name: "Max", Size: "small"})
	require.NoError(t, err)

	valid := walks.CreateRequestInput{
		DogID:           d.ID,
		RequestedTime:   time.Date(2025, 4, 20, 8, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Location:        "Parklands",
	}

	cases := []struct {
		name   string
		mutate func(in *walks.CreateRequestInput)
	}{
		{"zero duration", func(in *walks.CreateRequestInput) { in.DurationMinutes = 0 }},
		{"too long", func(in *walks.CreateRequestInput) { in.DurationMinutes = 24*60 + 1 }},
		{"no time", func(in *walks.CreateRequestInput) { in.RequestedTime = time.Time{} }},
		{"blank location", func(in *walks.CreateRequestInput) { in.Location = "   " }},
		{"long location", func(in *walks.CreateRequestInput) { in.Location = strings.Repeat("x", 256) }},
		{"no dog", func(in *walks.CreateRequestInput) { in.DogID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := f.svc.CreateWalkRequest(ctx, owner, in)
			require.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	_, err = f.svc.CreateWalkRequest(ctx, other, valid)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	in := valid
	in.DogID = "missing"
	_, err = f.svc.CreateWalkRequest(ctx, owner, in)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSubmitRating_Rules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	stranger := f.user(t, "davidowner", auth.RoleOwner)
	bob := f.user(t, "bobwalker", auth.RoleWalker)

	req := f.completedWalk(t, owner, bob, "Max")

	_, err := f.svc.SubmitRating(ctx, owner, req.ID, walks.RatingInput{Rating: 0})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.SubmitRating(ctx, owner, req.ID, walks.RatingInput{Rating: 6})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.SubmitRating(ctx, owner, req.ID, walks.RatingInput{Rating: 5, Comments: strings.Repeat("ñ", 1001)})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.SubmitRating(ctx, stranger, req.ID, walks.RatingInput{Rating: 5})
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SubmitRating(ctx, bob, req.ID, walks.RatingInput{Rating: 5})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	rt, err := f.svc.SubmitRating(ctx, owner, req.ID, walks.RatingInput{Rating: 4, Comments: strings.Repeat("ñ", 1000)})
	require.NoError(t, err)
	require.Equal(t, bob.UserID, rt.WalkerID)
	require.Equal(t, owner.UserID, rt.OwnerID)

	_, err = f.svc.SubmitRating(ctx, owner, req.ID, walks.RatingInput{Rating: 5})
	require.ErrorIs(t, err, apperr.ErrStateConflict)

	got, err := f.svc.GetRating(ctx, bob, req.ID)
	require.NoError(t, err)
	require.Equal(t, rt, got)
}

func TestWalkerSummary_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	bob := f.user(t, "bobwalker", auth.RoleWalker)
	f.user(t, "evewalker", auth.RoleWalker)

	r1 := f.completedWalk(t, owner, bob, "Max")
	r2 := f.completedWalk(t, owner, bob, "Bella")
	_, err := f.svc.SubmitRating(ctx, owner, r1.ID, walks.RatingInput{Rating: 5, Comments: "Great walk"})
	require.NoError(t, err)
	_, err = f.svc.SubmitRating(ctx, owner, r2.ID, walks.RatingInput{Rating: 4})
	require.NoError(t, err)

	got, err := f.svc.WalkerSummary(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "bobwalker", got[0].WalkerUsername)
	require.Equal(t, 2, got[0].CompletedWalks)
	require.Equal(t, 2, got[0].TotalRatings)
	require.Equal(t, 4.5, *got[0].AverageRating)

	require.Equal(t, "evewalker", got[1].WalkerUsername)
	require.Equal(t, 0, got[1].CompletedWalks)
	require.Equal(t, 0, got[1].TotalRatings)
	require.Nil(t, got[1].AverageRating)
}

func TestAcceptApplication_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	req := f.openRequest(t, owner, "Max")

	const n = 8
	appIDs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		w := f.user(t, fmt.Sprintf("walker%02d", i), auth.RoleWalker)
		app, err := f.svc.SubmitApplication(ctx, w, req.ID)
		require.NoError(t, err)
		appIDs = append(appIDs, app.ID)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	for _, id := range appIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.AcceptApplication(ctx, owner, id)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			errs = append(errs, err)
		}(id)
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	for _, err := range errs {
		require.ErrorIs(t, err, apperr.ErrStateConflict)
	}

	apps, err := f.svc.ListApplications(ctx, owner, req.ID)
	require.NoError(t, err)
	accepted := 0
	for _, a := range apps {
		if a.Status == walks.ApplicationAccepted {
			accepted++
		} else {
			require.Equal(t, walks.ApplicationRejected, a.Status)
		}
	}
	require.Equal(t, 1, accepted)
}

func TestSubmitRating_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice123", auth.RoleOwner)
	bob := f.user(t, "bobwalker", auth.RoleWalker)
	req := f.completedWalk(t, owner, bob, "Max")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitRating(ctx, owner, req.ID, walks.RatingInput{Rating: 1 + i%5})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, apperr.ErrStateConflict)
	}
	require.Equal(t, 1, wins)

	summary, err := f.svc.WalkerSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	require.Equal(t, 1, summary[0].CompletedWalks)
	require.Equal(t, 1, summary[0].TotalRatings)
}
