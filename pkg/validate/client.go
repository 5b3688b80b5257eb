package validate

import (
	"github.com/tendant/nexus-crm/pkg/domain"
)

// ClientInput is the request body for creating or updating a client. Nil
// fields were absent from the request.
type ClientInput struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`
	Status  *string `json:"status"`
}

type clientRules struct {
	Name    string `json:"name" validate:"required,max=200"`
	Company string `json:"company" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Phone   string `json:"phone" validate:"max=50"`
	Website string `json:"website" validate:"omitempty,url,max=2048"`
	Status  string `json:"status" validate:"oneof=lead active past"`
}

func (in ClientInput) rules() (clientRules, []string) {
	r := clientRules{
		Name:    trimmed(in.Name),
		Company: trimmed(in.Company),
		Email:   trimmed(in.Email),
		Phone:   trimmed(in.Phone),
		Website: trimmed(in.Website),
		Status:  trimmed(in.Status),
	}
	present := []string{}
	for name, p := range map[string]*string{
		"Name": in.Name, "Company": in.Company, "Email": in.Email,
		"Phone": in.Phone, "Website": in.Website, "Status": in.Status,
	} {
		if p != nil {
			present = append(present, name)
		}
	}
	return r, present
}

// ClientCreate validates a new client. Status defaults to lead.
func ClientCreate(in ClientInput) (*domain.Client, error) {
	r, _ := in.rules()
	if r.Status == "" {
		r.Status = string(domain.ClientStatusLead)
	}

	c := &collector{}
	c.check(r)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &domain.Client{
		Name:    r.Name,
		Company: r.Company,
		Email:   r.Email,
		Phone:   r.Phone,
		Website: r.Website,
		Status:  domain.ClientStatus(r.Status),
	}, nil
}

// ClientUpdate validates the fields present in a partial update.
func ClientUpdate(in ClientInput) (domain.ClientPatch, error) {
	r, present := in.rules()

	c := &collector{}
	c.check(r, present...)
	if err := c.err(); err != nil {
		return domain.ClientPatch{}, err
	}

	var p domain.ClientPatch
	if in.Name != nil {
		p.Name = &r.Name
	}
	if in.Company != nil {
		p.Company = &r.Company
	}
	if in.Email != nil {
		p.Email = &r.Email
	}
	if in.Phone != nil {
		p.Phone = &r.Phone
	}
	if in.Website != nil {
		p.Website = &r.Website
	}
	if in.Status != nil {
		status := domain.ClientStatus(r.Status)
		p.Status = &status
	}
	return p, nil
}
