package repository

import (
	"errors"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/tendant/nexus-crm/pkg/domain"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "duplicate email",
			err:  &pq.Error{Code: "23505", Constraint: "users_email_lower_key"},
			want: domain.ErrDuplicateEmail,
		},
		{
			name: "missing client reference",
			err: &pq.Error{
				Code:       "23503",
				Constraint: "deals_client_id_fkey",
				Detail:     `Key (client_id)=(6f1c5d2e-0000-0000-0000-000000000000) is not present in table "clients".`,
			},
			want: domain.ErrClientNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPostgresError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("mapPostgresError() = %v, want %v", got, tt.want)
			}
			if got.Error() != tt.want.Error() {
				t.Errorf("message = %q, want %q", got.Error(), tt.want.Error())
			}
			if strings.Contains(got.Error(), "Key (") {
				t.Errorf("message leaks constraint detail: %q", got.Error())
			}
		})
	}

	if mapPostgresError(nil) != nil {
		t.Error("mapPostgresError(nil) != nil")
	}
}
