package validate

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tendant/nexus-crm/pkg/domain"
)

func str(s string) *string { return &s }

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	ve, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	require.True(t, ve.Has(field), "expected error on %q, got %v", field, ve.Fields)
}

func TestClientCreate(t *testing.T) {
	t.Run("name is required", func(t *testing.T) {
		_, err := ClientCreate(ClientInput{Name: str("")})
		requireFieldError(t, err, "name")
	})

	t.Run("blank name is required", func(t *testing.T) {
		_, err := ClientCreate(ClientInput{Name: str("   ")})
		requireFieldError(t, err, "name")
	})

	t.Run("website must be a url", func(t *testing.T) {
		_, err := ClientCreate(ClientInput{Name: str("X"), Website: str("not-a-url")})
		requireFieldError(t, err, "website")
	})

	t.Run("empty optional fields are treated as absent", func(t *testing.T) {
		c, err := ClientCreate(ClientInput{Name: str("X"), Website: str(""), Email: str("")})
		require.NoError(t, err)
		require.Equal(t, "X", c.Name)
		require.Empty(t, c.Website)
		require.Equal(t, domain.ClientStatusLead, c.Status)
	})

	t.Run("email shape", func(t *testing.T) {
		_, err := ClientCreate(ClientInput{Name: str("X"), Email: str("nope")})
		requireFieldError(t, err, "email")
	})

	t.Run("status must be known", func(t *testing.T) {
		_, err := ClientCreate(ClientInput{Name: str("X"), Status: str("vip")})
		requireFieldError(t, err, "status")
	})
}

func TestClientUpdate(t *testing.T) {
	t.Run("absent fields are not validated", func(t *testing.T) {
		p, err := ClientUpdate(ClientInput{Company: str("Initech")})
		require.NoError(t, err)
		require.Nil(t, p.Name)
		require.Equal(t, "Initech", *p.Company)
	})

	t.Run("present name cannot be blanked", func(t *testing.T) {
		_, err := ClientUpdate(ClientInput{Name: str("")})
		requireFieldError(t, err, "name")
	})

	t.Run("empty patch", func(t *testing.T) {
		p, err := ClientUpdate(ClientInput{})
		require.NoError(t, err)
		require.True(t, p.IsEmpty())
	})
}

func TestDealCreate(t *testing.T) {
	t.Run("coerces numeric strings and dates", func(t *testing.T) {
		var in DealInput
		body := `{"title":"Website Redesign","value":"5000","stage":"negotiation","probability":75,"expected_close_date":"2025-03-31"}`
		require.NoError(t, json.Unmarshal([]byte(body), &in))

		d, err := DealCreate(in, "EUR")
		require.NoError(t, err)
		require.Equal(t, 5000.0, d.Value)
		require.Equal(t, 75, d.Probability)
		require.Equal(t, domain.StageNegotiation, d.Stage)
		require.Equal(t, "EUR", d.Currency)
		require.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), *d.ExpectedCloseDate)
	})

	t.Run("defaults", func(t *testing.T) {
		d, err := DealCreate(DealInput{Title: str("Renewal")}, "")
		require.NoError(t, err)
		require.Equal(t, domain.StageProspect, d.Stage)
		require.Equal(t, "USD", d.Currency)
		require.Zero(t, d.Value)
		require.Nil(t, d.ClientID)
	})

	t.Run("unparseable value", func(t *testing.T) {
		v := Number("lots")
		_, err := DealCreate(DealInput{Title: str("X"), Value: &v}, "")
		requireFieldError(t, err, "value")
	})

	t.Run("probability range", func(t *testing.T) {
		p := Number("150")
		_, err := DealCreate(DealInput{Title: str("X"), Probability: &p}, "")
		requireFieldError(t, err, "probability")
	})

	t.Run("negative value", func(t *testing.T) {
		v := Number("-1")
		_, err := DealCreate(DealInput{Title: str("X"), Value: &v}, "")
		requireFieldError(t, err, "value")
	})

	t.Run("non-finite and oversized values", func(t *testing.T) {
		for _, raw := range []string{`"Inf"`, `"+Infinity"`, `"NaN"`, `1e15`, `1000000000000`} {
			var in DealInput
			require.NoError(t, json.Unmarshal([]byte(`{"title":"X","value":`+raw+`}`), &in))
			_, err := DealCreate(in, "")
			requireFieldError(t, err, "value")
		}
	})

	t.Run("largest storable value", func(t *testing.T) {
		v := Number("999999999999.99")
		d, err := DealCreate(DealInput{Title: str("X"), Value: &v}, "")
		require.NoError(t, err)
		require.Equal(t, 999999999999.99, d.Value)
	})

	t.Run("bad date and client id are reported together", func(t *testing.T) {
		_, err := DealCreate(DealInput{Title: str("X"), ExpectedCloseDate: str("soon"), ClientID: str("abc")}, "")
		requireFieldError(t, err, "expected_close_date")
		requireFieldError(t, err, "client_id")
	})

	t.Run("unknown stage", func(t *testing.T) {
		_, err := DealCreate(DealInput{Title: str("X"), Stage: str("closed")}, "")
		requireFieldError(t, err, "stage")
	})
}

func TestDealUpdate(t *testing.T) {
	t.Run("empty strings clear client and close date", func(t *testing.T) {
		p, err := DealUpdate(DealInput{ClientID: str(""), ExpectedCloseDate: str("")})
		require.NoError(t, err)
		require.Equal(t, uuid.Nil, *p.ClientID)
		require.True(t, p.ExpectedCloseDate.IsZero())
	})

	t.Run("only present fields are set", func(t *testing.T) {
		p, err := DealUpdate(DealInput{Stage: str("won")})
		require.NoError(t, err)
		require.Equal(t, domain.StageWon, *p.Stage)
		require.Nil(t, p.Title)
		require.Nil(t, p.Value)
	})

	t.Run("infinite value is rejected", func(t *testing.T) {
		v := Number("Inf")
		_, err := DealUpdate(DealInput{Value: &v})
		requireFieldError(t, err, "value")
	})

	t.Run("null or empty numbers leave the deal unchanged", func(t *testing.T) {
		for _, body := range []string{`{"value":null,"probability":null}`, `{"value":"","probability":""}`} {
			var in DealInput
			require.NoError(t, json.Unmarshal([]byte(body), &in))
			p, err := DealUpdate(in)
			require.NoError(t, err)
			require.Nil(t, p.Value, body)
			require.Nil(t, p.Probability, body)
		}
	})

	t.Run("present title cannot be blank", func(t *testing.T) {
		_, err := DealUpdate(DealInput{Title: str(" ")})
		requireFieldError(t, err, "title")
	})
}

func TestTaskCreateAndUpdate(t *testing.T) {
	task, err := TaskCreate(TaskInput{Title: str("Call"), DueDate: str("2025-01-05T10:00:00Z")})
	require.NoError(t, err)
	require.Equal(t, domain.PriorityMedium, task.Priority)
	require.Equal(t, domain.TaskStatusOpen, task.Status)
	require.NotNil(t, task.DueDate)

	_, err = TaskCreate(TaskInput{Title: str("Call"), Priority: str("urgent")})
	requireFieldError(t, err, "priority")

	p, err := TaskUpdate(TaskInput{Status: str("done")})
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusDone, *p.Status)

	_, err = TaskUpdate(TaskInput{DueDate: str("31/01/2025")})
	requireFieldError(t, err, "due_date")
}

func TestNoteCreate(t *testing.T) {
	clientID := uuid.New()
	n, err := NoteCreate(clientID, NoteInput{Content: str("Prefers email")})
	require.NoError(t, err)
	require.Equal(t, clientID, n.ClientID)

	_, err = NoteCreate(clientID, NoteInput{})
	requireFieldError(t, err, "content")
}

func TestSignup(t *testing.T) {
	out, err := Signup(SignupInput{Email: "  Alice@Example.COM ", Password: "correct horse", Name: " Alice "})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", out.Email)
	require.Equal(t, "Alice", out.Name)

	_, err = Signup(SignupInput{Email: "alice", Password: "short", Name: "A"})
	requireFieldError(t, err, "email")
	requireFieldError(t, err, "password")
	requireFieldError(t, err, "name")

	// 40 characters but 80 bytes.
	_, err = Signup(SignupInput{Email: "alice@example.com", Password: strings.Repeat("é", 40), Name: "Alice"})
	requireFieldError(t, err, "password")

	_, err = Signup(SignupInput{Email: "alice@example.com", Password: strings.Repeat("a", 72), Name: "Alice"})
	require.NoError(t, err)
}

func TestSettings(t *testing.T) {
	p, err := Settings(SettingsInput{Currency: str("eur"), Timezone: str("Europe/Berlin")})
	require.NoError(t, err)
	require.Equal(t, "EUR", *p.Currency)
	require.Equal(t, "Europe/Berlin", *p.Timezone)
	require.Nil(t, p.Name)

	_, err = Settings(SettingsInput{Timezone: str("Mars/Olympus")})
	requireFieldError(t, err, "timezone")

	_, err = Settings(SettingsInput{Currency: str("DOLLARS")})
	requireFieldError(t, err, "currency")
}

func TestStage(t *testing.T) {
	s, err := Stage("proposal")
	require.NoError(t, err)
	require.Equal(t, domain.StageProposal, s)

	_, err = Stage("closed")
	requireFieldError(t, err, "stage")
}
