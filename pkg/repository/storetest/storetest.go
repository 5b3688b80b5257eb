// Package storetest checks that a repository.Stores implementation honors the
// store contracts. The memory and Postgres stores both run it.
package storetest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
)

// Run runs every contract check. newStores may return the same backing store
// on each call; every check works in freshly created tenants.
func Run(t *testing.T, newStores func(t *testing.T) repository.Stores) {
	checks := []struct {
		name string
		fn   func(t *testing.T, st repository.Stores)
	}{
		{"UserStore", testUserStore},
		{"ClientStore_TenantIsolation", testClientTenantIsolation},
		{"ClientStore_CreateMatchesGet", testClientCreateMatchesGet},
		{"ClientStore_Search", testClientSearch},
		{"DealStore_RoundTrip", testDealRoundTrip},
		{"ClientStore_DeletePolicy", testClientDeletePolicy},
		{"TaskStore_OrderByDueDate", testTaskOrderByDueDate},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			c.fn(t, newStores(t))
		})
	}
}

func ptr[T any](v T) *T { return &v }

// uniqueEmail keeps emails distinct across runs against a shared database.
func uniqueEmail(local string) string {
	return local + "-" + uuid.NewString()[:8] + "@example.com"
}

func newTenant(t *testing.T, st repository.Stores) uuid.UUID {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Email: uniqueEmail("owner"), Name: "Owner", Currency: "USD", Timezone: "UTC"}
	require.NoError(t, st.Users.Create(context.Background(), u))
	return u.ID
}

func testUserStore(t *testing.T, st repository.Stores) {
	ctx := context.Background()

	t.Run("email lookup ignores case", func(t *testing.T) {
		email := uniqueEmail("alice")
		u := &domain.User{ID: uuid.New(), Email: strings.ToUpper(email[:1]) + email[1:], Name: "Alice", Currency: "USD", Timezone: "UTC"}
		require.NoError(t, st.Users.Create(ctx, u))

		got, err := st.Users.GetByEmail(ctx, strings.ToUpper(email))
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("duplicate email in another case is rejected", func(t *testing.T) {
		email := uniqueEmail("bob")
		require.NoError(t, st.Users.Create(ctx, &domain.User{ID: uuid.New(), Email: email, Name: "Bob", Currency: "USD", Timezone: "UTC"}))

		err := st.Users.Create(ctx, &domain.User{ID: uuid.New(), Email: strings.ToUpper(email), Name: "Bob", Currency: "USD", Timezone: "UTC"})
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("update profile bumps updated_at", func(t *testing.T) {
		id := newTenant(t, st)
		before, err := st.Users.GetByID(ctx, id)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)

		u, err := st.Users.UpdateProfile(ctx, id, domain.ProfilePatch{Currency: ptr("EUR")})
		require.NoError(t, err)
		require.Equal(t, "EUR", u.Currency)
		require.Equal(t, "Owner", u.Name)
		require.True(t, u.UpdatedAt.After(before.UpdatedAt))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := st.Users.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func testClientTenantIsolation(t *testing.T, st repository.Stores) {
	ctx := context.Background()
	alice := newTenant(t, st)
	bob := newTenant(t, st)

	t.Run("create stamps the tenant", func(t *testing.T) {
		c, err := st.Clients.Create(ctx, alice, &domain.Client{UserID: bob, Name: "Acme"})
		require.NoError(t, err)
		require.Equal(t, alice, c.UserID)
		require.Equal(t, domain.ClientStatusLead, c.Status)
	})

	c, err := st.Clients.Create(ctx, alice, &domain.Client{Name: "Globex"})
	require.NoError(t, err)
	deal, err := st.Deals.Create(ctx, alice, &domain.Deal{Title: "Globex renewal", ClientID: &c.ID})
	require.NoError(t, err)

	t.Run("other tenant sees not found", func(t *testing.T) {
		_, err := st.Clients.Get(ctx, bob, c.ID)
		require.ErrorIs(t, err, domain.ErrClientNotFound)

		_, err = st.Clients.Update(ctx, bob, c.ID, domain.ClientPatch{Name: ptr("Stolen")})
		require.ErrorIs(t, err, domain.ErrClientNotFound)

		require.ErrorIs(t, st.Clients.Delete(ctx, bob, c.ID), domain.ErrClientNotFound)

		_, err = st.Deals.Get(ctx, bob, deal.ID)
		require.ErrorIs(t, err, domain.ErrDealNotFound)

		_, err = st.Deals.Update(ctx, bob, deal.ID, domain.DealPatch{Stage: ptr(domain.StageLost)})
		require.ErrorIs(t, err, domain.ErrDealNotFound)

		require.ErrorIs(t, st.Deals.Delete(ctx, bob, deal.ID), domain.ErrDealNotFound)

		got, err := st.Clients.Get(ctx, alice, c.ID)
		require.NoError(t, err)
		require.Equal(t, "Globex", got.Name)

		gotDeal, err := st.Deals.Get(ctx, alice, deal.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StageProspect, gotDeal.Stage)
	})

	t.Run("other tenant lists nothing", func(t *testing.T) {
		list, err := st.Clients.List(ctx, bob, repository.ClientFilter{})
		require.NoError(t, err)
		require.Empty(t, list)

		n, err := st.Clients.Count(ctx, bob, repository.ClientFilter{})
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("records cannot reference another tenant's client", func(t *testing.T) {
		_, err := st.Deals.Create(ctx, bob, &domain.Deal{Title: "Sneaky", ClientID: &c.ID})
		require.ErrorIs(t, err, domain.ErrClientNotFound)

		_, err = st.Notes.Create(ctx, bob, &domain.Note{ClientID: c.ID, Content: "hi"})
		require.ErrorIs(t, err, domain.ErrClientNotFound)
	})
}

func testClientCreateMatchesGet(t *testing.T, st repository.Stores) {
	ctx := context.Background()
	tenant := newTenant(t, st)

	created, err := st.Clients.Create(ctx, tenant, &domain.Client{Name: "Acme", Website: "https://acme.example"})
	require.NoError(t, err)
	got, err := st.Clients.Get(ctx, tenant, created.ID)
	require.NoError(t, err)
	require.True(t, created.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", created.CreatedAt, got.CreatedAt)
	require.True(t, created.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", created.UpdatedAt, got.UpdatedAt)
	require.Equal(t, created.Website, got.Website)

	note, err := st.Notes.Create(ctx, tenant, &domain.Note{ClientID: created.ID, Content: "Prefers email"})
	require.NoError(t, err)
	notes, err := st.Notes.ListByClient(ctx, tenant, created.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.True(t, note.CreatedAt.Equal(notes[0].CreatedAt), "note created_at %v != %v", note.CreatedAt, notes[0].CreatedAt)

	time.Sleep(2 * time.Millisecond)
	updated, err := st.Clients.Update(ctx, tenant, created.ID, domain.ClientPatch{Status: ptr(domain.ClientStatusActive)})
	require.NoError(t, err)
	require.Equal(t, "Acme", updated.Name)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	require.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func testClientSearch(t *testing.T, st repository.Stores) {
	ctx := context.Background()
	tenant := newTenant(t, st)

	for _, c := range []*domain.Client{
		{Name: "Jane Doe", Company: "Initech"},
		{Name: "John Roe", Email: "john@umbrella.io"},
		{Name: "Fifty Percent", Company: "50% Off Ltd"},
		{Name: "Five Hundred", Company: "500 Club"},
		{Name: "Under_score"},
		{Name: "Underscore"},
	} {
		_, err := st.Clients.Create(ctx, tenant, c)
		require.NoError(t, err)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"INITECH", []string{"Jane Doe"}},
		{"umbrella", []string{"John Roe"}},
		{"50%", []string{"Fifty Percent"}},
		{"r_s", []string{"Under_score"}},
	}
	for _, tt := range tests {
		list, err := st.Clients.List(ctx, tenant, repository.ClientFilter{Search: tt.search})
		require.NoError(t, err, tt.search)
		names := make([]string, len(list))
		for i, c := range list {
			names[i] = c.Name
		}
		require.ElementsMatch(t, tt.want, names, "search %q", tt.search)
	}

	list, err := st.Clients.List(ctx, tenant, repository.ClientFilter{OrderBy: repository.Ordering{Field: "name"}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Fifty Percent", list[0].Name)

	_, err = st.Clients.List(ctx, tenant, repository.ClientFilter{OrderBy: repository.Ordering{Field: "password"}})
	ve, ok := domain.AsValidationError(err)
	require.True(t, ok)
	require.True(t, ve.Has("order_by"))
}

func testDealRoundTrip(t *testing.T, st repository.Stores) {
	ctx := context.Background()
	tenant := newTenant(t, st)

	client, err := st.Clients.Create(ctx, tenant, &domain.Client{Name: "Acme"})
	require.NoError(t, err)

	closeDate := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	created, err := st.Deals.Create(ctx, tenant, &domain.Deal{
		ClientID:          &client.ID,
		Title:             "Website Redesign",
		Value:             5000,
		Stage:             domain.StageNegotiation,
		Probability:       75,
		ExpectedCloseDate: &closeDate,
	})
	require.NoError(t, err)

	got, err := st.Deals.Get(ctx, tenant, created.ID)
	require.NoError(t, err)
	require.Equal(t, tenant, got.UserID)
	require.Equal(t, client.ID, *got.ClientID)
	require.Equal(t, "Website Redesign", got.Title)
	require.Equal(t, 5000.0, got.Value)
	require.Equal(t, domain.StageNegotiation, got.Stage)
	require.Equal(t, 75, got.Probability)
	require.Equal(t, "USD", got.Currency)
	require.Equal(t, "Acme", got.ClientName)
	require.True(t, closeDate.Equal(*got.ExpectedCloseDate))
	require.True(t, created.CreatedAt.Equal(got.CreatedAt))

	t.Run("patch clears client and close date", func(t *testing.T) {
		time.Sleep(2 * time.Millisecond)
		updated, err := st.Deals.Update(ctx, tenant, created.ID, domain.DealPatch{
			ClientID:          ptr(uuid.Nil),
			ExpectedCloseDate: ptr(time.Time{}),
		})
		require.NoError(t, err)
		require.Nil(t, updated.ClientID)
		require.Nil(t, updated.ExpectedCloseDate)
		require.Empty(t, updated.ClientName)
		require.Equal(t, 5000.0, updated.Value)
		require.True(t, updated.UpdatedAt.After(got.UpdatedAt))
	})

	t.Run("active deals exclude won and lost", func(t *testing.T) {
		for _, s := range []domain.Stage{domain.StageProspect, domain.StageWon, domain.StageLost} {
			_, err := st.Deals.Create(ctx, tenant, &domain.Deal{Title: string(s), Stage: s})
			require.NoError(t, err)
		}
		n, err := st.Deals.Count(ctx, tenant, repository.ActiveDeals())
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})
}

func testClientDeletePolicy(t *testing.T, st repository.Stores) {
	ctx := context.Background()
	tenant := newTenant(t, st)

	client, err := st.Clients.Create(ctx, tenant, &domain.Client{Name: "Acme"})
	require.NoError(t, err)
	deal, err := st.Deals.Create(ctx, tenant, &domain.Deal{Title: "Renewal", ClientID: &client.ID})
	require.NoError(t, err)
	task, err := st.Tasks.Create(ctx, tenant, &domain.Task{Title: "Call back", ClientID: &client.ID})
	require.NoError(t, err)
	note, err := st.Notes.Create(ctx, tenant, &domain.Note{ClientID: client.ID, Content: "Prefers email"})
	require.NoError(t, err)

	detail, err := st.Clients.GetDetail(ctx, tenant, client.ID)
	require.NoError(t, err)
	require.Len(t, detail.Deals, 1)
	require.Len(t, detail.Tasks, 1)
	require.Len(t, detail.Notes, 1)

	require.NoError(t, st.Clients.Delete(ctx, tenant, client.ID))
	require.ErrorIs(t, st.Clients.Delete(ctx, tenant, client.ID), domain.ErrClientNotFound)

	gotDeal, err := st.Deals.Get(ctx, tenant, deal.ID)
	require.NoError(t, err)
	require.Nil(t, gotDeal.ClientID)

	gotTask, err := st.Tasks.Get(ctx, tenant, task.ID)
	require.NoError(t, err)
	require.Nil(t, gotTask.ClientID)

	require.ErrorIs(t, st.Notes.Delete(ctx, tenant, note.ID), domain.ErrNoteNotFound)
}

func testTaskOrderByDueDate(t *testing.T, st repository.Stores) {
	ctx := context.Background()
	tenant := newTenant(t, st)

	day := func(d int) *time.Time {
		v := time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	_, err := st.Tasks.Create(ctx, tenant, &domain.Task{Title: "undated"})
	require.NoError(t, err)
	_, err = st.Tasks.Create(ctx, tenant, &domain.Task{Title: "later", DueDate: day(20)})
	require.NoError(t, err)
	_, err = st.Tasks.Create(ctx, tenant, &domain.Task{Title: "sooner", DueDate: day(5)})
	require.NoError(t, err)

	list, err := st.Tasks.List(ctx, tenant, repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "sooner", list[0].Title)
	require.Equal(t, "later", list[1].Title)
	require.Equal(t, "undated", list[2].Title)

	done, err := st.Tasks.Update(ctx, tenant, list[0].ID, domain.TaskPatch{Status: ptr(domain.TaskStatusDone)})
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusDone, done.Status)

	_, err = st.Tasks.Get(ctx, newTenant(t, st), done.ID)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	n, err := st.Tasks.Count(ctx, tenant, repository.TaskFilter{Status: ptr(domain.TaskStatusOpen)})
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
